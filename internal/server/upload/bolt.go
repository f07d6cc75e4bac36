package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.etcd.io/bbolt"
)

var bucketImages = []byte("images")

// storedImage запись в bucket images
type storedImage struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// BoltStore keeps images in a single bbolt file
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the bbolt file at dbPath
func NewBoltStore(dbPath string) (*BoltStore, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketImages); err != nil {
			return fmt.Errorf("failed to create images bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Save stores image under name
func (s *BoltStore) Save(_ context.Context, name, contentType string, r io.Reader) error {
	if err := ValidName(name); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	record, err := json.Marshal(storedImage{ContentType: contentType, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal image: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketImages)
		if bucket == nil {
			return fmt.Errorf("images bucket not found")
		}

		if err := bucket.Put([]byte(name), record); err != nil {
			return fmt.Errorf("failed to save image: %w", err)
		}
		return nil
	})
}

// Open returns stored image content
func (s *BoltStore) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	if err := ValidName(name); err != nil {
		return nil, "", err
	}

	var image storedImage
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketImages)
		if bucket == nil {
			return fmt.Errorf("images bucket not found")
		}

		data := bucket.Get([]byte(name))
		if data == nil {
			return ErrImageNotFound
		}

		// data валидна только внутри транзакции, Unmarshal копирует
		if err := json.Unmarshal(data, &image); err != nil {
			return fmt.Errorf("failed to unmarshal image: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return io.NopCloser(bytes.NewReader(image.Data)), image.ContentType, nil
}

// Delete removes image by name
func (s *BoltStore) Delete(_ context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketImages)
		if bucket == nil {
			return fmt.Errorf("images bucket not found")
		}
		return bucket.Delete([]byte(name))
	})
}

// Close closes the database
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
