/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 12 16:28:57 2019 mstenber
 * Last modified: Sun Feb 17 10:58:17 2019 mstenber
 * Edit time:     27 min
 *
 */

package factory

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/fingon/go-wordtree/storage"
	"github.com/pkg/errors"
	"github.com/stvp/assert"
)

func TestList(t *testing.T) {
	t.Parallel()
	assert.Equal(t, len(List()), len(backendFactories))
	assert.Equal(t, List()[0], "badger")
}

func TestUnknown(t *testing.T) {
	t.Parallel()
	_, err := New("nonexistent", storage.BackendConfiguration{})
	assert.Equal(t, errors.Cause(err), ErrUnknownBackend)
}

func block(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, storage.DefaultBlockSize)
}

func prodBackend(t *testing.T, be storage.Backend) {
	bs := int64(storage.DefaultBlockSize)
	size, err := be.Size()
	assert.Nil(t, err)
	assert.Equal(t, size, int64(0))

	b := make([]byte, bs)
	err = be.ReadBlock(0, b)
	assert.Equal(t, errors.Cause(err), storage.ErrOutOfRange)

	assert.Nil(t, be.WriteBlock(0, block(1)))
	size, err = be.Size()
	assert.Nil(t, err)
	assert.Equal(t, size, bs)

	// Skipping a block grows the store past it; the gap reads as zeros
	assert.Nil(t, be.WriteBlock(2*bs, block(3)))
	size, err = be.Size()
	assert.Nil(t, err)
	assert.Equal(t, size, 3*bs)

	assert.Nil(t, be.ReadBlock(bs, b))
	assert.True(t, bytes.Equal(b, block(0)))
	assert.Nil(t, be.ReadBlock(2*bs, b))
	assert.True(t, bytes.Equal(b, block(3)))

	// Overwrite in place does not grow
	assert.Nil(t, be.WriteBlock(0, block(2)))
	assert.Nil(t, be.ReadBlock(0, b))
	assert.True(t, bytes.Equal(b, block(2)))
	size, err = be.Size()
	assert.Nil(t, err)
	assert.Equal(t, size, 3*bs)

	err = be.ReadBlock(3*bs, b)
	assert.Equal(t, errors.Cause(err), storage.ErrOutOfRange)

	err = be.ReadBlock(1, b)
	assert.Equal(t, errors.Cause(err), storage.ErrUnaligned)
	err = be.WriteBlock(0, b[:10])
	assert.Equal(t, errors.Cause(err), storage.ErrUnaligned)

	assert.Nil(t, be.Sync())
}

func TestBackends(t *testing.T) {
	t.Parallel()
	for _, name := range List() {
		for _, password := range []string{"", "siikret"} {
			name := name
			password := password
			t.Run(fmt.Sprintf("%s-%v", name, password != ""), func(t *testing.T) {
				t.Parallel()
				dir, err := ioutil.TempDir("", "factory")
				assert.Nil(t, err)
				defer os.RemoveAll(dir)
				config := Configuration{BackendName: name,
					Password:   password,
					Iterations: 64}
				config.Path = filepath.Join(dir, "tree")
				be, err := NewWithCodec(config)
				assert.Nil(t, err)
				prodBackend(t, be)
				assert.Nil(t, be.Close())

				if name == "inmemory" {
					return
				}

				// Persisted content survives reopen
				be, err = NewWithCodec(config)
				assert.Nil(t, err)
				defer be.Close()
				size, err := be.Size()
				assert.Nil(t, err)
				assert.Equal(t, size, int64(3*storage.DefaultBlockSize))
				b := make([]byte, storage.DefaultBlockSize)
				assert.Nil(t, be.ReadBlock(0, b))
				assert.True(t, bytes.Equal(b, block(2)))
			})
		}
	}
}
