package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mholt/archiver/v4"
)

// EmbeddingCache is a decoded npz archive keyed by array name.
type EmbeddingCache struct {
	Arrays map[string]Array
}

func DecodeNPZ(ctx context.Context, content io.ReaderAt, size int64) (any, error) {
	cache := &EmbeddingCache{Arrays: map[string]Array{}}
	err := archiver.Zip{}.Extract(ctx, io.NewSectionReader(content, 0, size), nil, func(ctx context.Context, f archiver.File) error {
		if f.IsDir() || !strings.HasSuffix(f.NameInArchive, ".npy") {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(f.NameInArchive, ".npy")
		arr, err := parseNPY(name, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f.NameInArchive, err)
		}
		cache.Arrays[name] = arr
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("npz: %w", err)
	}
	if len(cache.Arrays) == 0 {
		return nil, errors.New("npz: no arrays")
	}
	return cache, nil
}

// Embeddings returns the rows of the float32 "embeddings" matrix and their "labels".
func (c *EmbeddingCache) Embeddings() ([][]float32, []string, error) {
	emb, ok := c.Arrays["embeddings"]
	if !ok {
		return nil, nil, errors.New("missing embeddings array")
	}
	labels, ok := c.Arrays["labels"]
	if !ok {
		return nil, nil, errors.New("missing labels array")
	}
	if len(emb.Shape) != 2 || emb.Float32 == nil {
		return nil, nil, fmt.Errorf("embeddings: want 2d float32, got %s %v", emb.Dtype, emb.Shape)
	}
	rows, dim := emb.Shape[0], emb.Shape[1]
	if len(labels.Strings) != rows {
		return nil, nil, fmt.Errorf("embeddings: %d rows but %d labels", rows, len(labels.Strings))
	}
	out := make([][]float32, rows)
	for i := range out {
		out[i] = emb.Float32[i*dim : (i+1)*dim]
	}
	return out, labels.Strings, nil
}
