package pipeline

import (
	"fmt"
	"io"
	"os"
)

// Concatenate writes segment_0.txt .. segment_<count-1>.txt back to back into
// a freshly truncated result file. No separators are added. With count 0 the
// result file is created empty.
func Concatenate(dir RunDir, count int) (err error) {
	out, err := os.Create(dir.ResultPath())
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close result file: %w", closeErr)
		}
	}()

	for i := 0; i < count; i++ {
		if err := appendFile(out, dir.SegmentPath(i, TextExt)); err != nil {
			return fmt.Errorf("append segment %d: %w", i, err)
		}
	}
	return nil
}

func appendFile(dst io.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(dst, in)
	return err
}
