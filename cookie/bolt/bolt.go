/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bolt is a cookie.Store in a BoltDB file.
//
// Each host gets a bucket.  Keys are the JarDocument's cookie keys,
// and values are the raw Set-Cookie headers.
package bolt

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

var NotOpen = errors.New("storage not open")

type Storage struct {
	Logger *zerolog.Logger

	filename string
	db       *bolt.DB
}

func NewStorage(filename string) *Storage {
	nop := zerolog.Nop()
	return &Storage{
		Logger:   &nop,
		filename: filename,
	}
}

func (s *Storage) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) Load(ctx context.Context, host string) (map[string]string, error) {
	if s.db == nil {
		return nil, NotOpen
	}
	acc := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(host))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			acc[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Debug().Str("host", host).Int("count", len(acc)).Msg("load")
	return acc, nil
}

func (s *Storage) Save(ctx context.Context, host, key, header string) error {
	if s.db == nil {
		return NotOpen
	}
	s.Logger.Debug().Str("host", host).Str("key", key).Msg("save")
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(host))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(header))
	})
}

func (s *Storage) Delete(ctx context.Context, host, key string) error {
	if s.db == nil {
		return NotOpen
	}
	s.Logger.Debug().Str("host", host).Str("key", key).Msg("delete")
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(host))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}
