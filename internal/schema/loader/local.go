package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/goliatone/go-pulpoforms/pkg/schema"
)

func readFile(_ context.Context, path string) (payload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return payload{}, err
	}
	if info.IsDir() {
		return payload{}, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return payload{}, err
	}
	format, _ := schema.FormatFromExtension(path)
	return payload{data: data, format: format}, nil
}

func readFS(files fs.FS) fetchFunc {
	return func(_ context.Context, name string) (payload, error) {
		info, err := fs.Stat(files, name)
		if err != nil {
			return payload{}, err
		}
		if info.IsDir() {
			return payload{}, fmt.Errorf("%s is a directory", name)
		}
		data, err := fs.ReadFile(files, name)
		if err != nil {
			return payload{}, err
		}
		format, _ := schema.FormatFromExtension(name)
		return payload{data: data, format: format}, nil
	}
}
