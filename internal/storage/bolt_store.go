package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samvad-hq/samvad-articles/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	articleBucket = "articles"
	idKeyBytes    = 8
)

// boltStore implements a Store backed by BoltDB. Keys are big-endian ids so a
// cursor walks articles in creation order.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(articleBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) Create(a domain.Article) (domain.Article, error) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := articles(tx)
		if err != nil {
			return err
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next article id: %w", err)
		}
		a.ID = int64(seq)
		return putArticle(bucket, a)
	})
	if err != nil {
		return domain.Article{}, err
	}
	return a, nil
}

func (b *boltStore) Get(id int64) (domain.Article, error) {
	var out domain.Article
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket, err := articles(tx)
		if err != nil {
			return err
		}
		value := bucket.Get(encodeID(id))
		if value == nil {
			return ErrNotFound
		}
		return decodeArticle(value, &out)
	})
	return out, err
}

func (b *boltStore) List() ([]domain.Article, error) {
	out := []domain.Article{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket, err := articles(tx)
		if err != nil {
			return err
		}
		return bucket.ForEach(func(_, v []byte) error {
			var a domain.Article
			if err := decodeArticle(v, &a); err != nil {
				return err
			}
			out = append(out, a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *boltStore) Update(id int64, a domain.Article) (domain.Article, error) {
	a.ID = id
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := articles(tx)
		if err != nil {
			return err
		}
		if bucket.Get(encodeID(id)) == nil {
			return ErrNotFound
		}
		return putArticle(bucket, a)
	})
	if err != nil {
		return domain.Article{}, err
	}
	return a, nil
}

func (b *boltStore) Delete(id int64) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := articles(tx)
		if err != nil {
			return err
		}
		key := encodeID(id)
		if bucket.Get(key) == nil {
			return ErrNotFound
		}
		return bucket.Delete(key)
	})
}

func articles(tx *bolt.Tx) (*bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(articleBucket))
	if bucket == nil {
		return nil, fmt.Errorf("article bucket missing")
	}
	return bucket, nil
}

func putArticle(bucket *bolt.Bucket, a domain.Article) error {
	value, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode article %d: %w", a.ID, err)
	}
	return bucket.Put(encodeID(a.ID), value)
}

func decodeArticle(value []byte, a *domain.Article) error {
	if err := json.Unmarshal(value, a); err != nil {
		return fmt.Errorf("decode stored article: %w", err)
	}
	return nil
}

func encodeID(id int64) []byte {
	buf := make([]byte, idKeyBytes)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}
