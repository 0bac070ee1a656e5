package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"

	"github.com/gogpu/attrblend/config"
)

// loadJob downloads and parses a job file.
func loadJob(ctx context.Context, fs afs.Service, url string) (*config.File, error) {
	data, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("read job %s: %w", url, err)
	}
	f, err := config.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return f, nil
}

// saveResult uploads the exported datasets.
func saveResult(ctx context.Context, fs afs.Service, url string, f *config.File) error {
	data, err := config.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := fs.Upload(ctx, url, os.FileMode(0o644), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write result %s: %w", url, err)
	}
	return nil
}
