/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 12 12:22:52 2019 mstenber
 * Last modified: Sun Feb 17 10:46:50 2019 mstenber
 * Edit time:     31 min
 *
 */

package factory

import (
	"sort"

	"github.com/fingon/go-wordtree/codec"
	"github.com/fingon/go-wordtree/mlog"
	"github.com/fingon/go-wordtree/storage"
	"github.com/fingon/go-wordtree/storage/badger"
	"github.com/fingon/go-wordtree/storage/bolt"
	"github.com/fingon/go-wordtree/storage/file"
	"github.com/fingon/go-wordtree/storage/inmemory"
	"github.com/pkg/errors"
)

const DefaultBackend = "file"

var ErrUnknownBackend = errors.New("unknown backend")

type factoryCallback func() storage.Backend

var backendFactories = map[string]factoryCallback{
	"inmemory": func() storage.Backend {
		return inmemory.NewInMemoryBackend()
	},
	"badger": func() storage.Backend {
		return badger.NewBadgerBackend()
	},
	"bolt": func() storage.Backend {
		return bolt.NewBoltBackend()
	},
	"file": func() storage.Backend {
		return file.NewFileBackend()
	}}

// List returns the names of the available backends, sorted.
func List() []string {
	keys := make([]string, 0, len(backendFactories))
	for k := range backendFactories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// New creates and initializes the named backend.
func New(name string, config storage.BackendConfiguration) (storage.Backend, error) {
	mlog.Printf2("storage/factory/factory", "f.New %v %v", name, config.Path)
	if name == "" {
		name = DefaultBackend
	}
	cb, ok := backendFactories[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "%q (available: %v)", name, List())
	}
	be := cb()
	if err := be.Init(config); err != nil {
		return nil, err
	}
	return be, nil
}

// Configuration describes a backend together with the codec its
// blocks are stored with.
type Configuration struct {
	storage.BackendConfiguration
	BackendName    string
	Password, Salt string
	Iterations     int
}

// NewWithCodec creates the backend with compression, and encryption
// if a password is given. Codecs only matter to the key-value
// backends; file and inmemory keep blocks as-is.
func NewWithCodec(config Configuration) (storage.Backend, error) {
	c, err := codec.New(config.Password, config.Salt, config.Iterations)
	if err != nil {
		return nil, err
	}
	if config.Password != "" {
		mlog.Printf2("storage/factory/factory", " with encryption + compression")
	} else {
		mlog.Printf2("storage/factory/factory", " only compression")
	}
	beconfig := config.BackendConfiguration
	beconfig.Codec = c
	return New(config.BackendName, beconfig)
}
