/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Feb 15 13:18:26 2019 mstenber
 * Last modified: Sun Feb 17 12:20:40 2019 mstenber
 * Edit time:     88 min
 *
 */

package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/fingon/go-wordtree/btree"
	"github.com/fingon/go-wordtree/codec"
	"github.com/fingon/go-wordtree/corpus"
	"github.com/fingon/go-wordtree/snapshot"
	"github.com/fingon/go-wordtree/storage/factory"
	"github.com/fingon/go-wordtree/words"
	"github.com/pkg/errors"
)

var errUsage = errors.New("invalid arguments")

type command struct {
	args  string
	nargs int
	cb    func(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error
}

var commands = map[string]command{
	"index":   {"NAME FILE..", -2, indexCommand},
	"search":  {"NAME WORD..", -2, searchCommand},
	"stats":   {"NAME", 1, statsCommand},
	"similar": {"NAME1 NAME2", 2, similarCommand},
	"closest": {"NAME", 1, closestCommand},
	"check":   {"NAME..", -1, checkCommand},
	"dump":    {"NAME", 1, dumpCommand},
	"export":  {"NAME OUTFILE", 2, exportCommand},
	"import":  {"INFILE NAME", 2, importCommand},
	"list":    {"", 0, listCommand},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n\n%s [flags] COMMAND [ARGS]\n\nCommands:\n", os.Args[0])
	for _, name := range sortedCommands() {
		fmt.Fprintf(os.Stderr, "  %s %s\n", name, commands[name].args)
	}
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	flag.PrintDefaults()
}

func sortedCommands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func run(config corpus.Config, args []string, w io.Writer) (err error) {
	if len(args) == 0 {
		return errUsage
	}
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		return errors.Wrapf(errUsage, "unknown command %q", name)
	}
	args = args[1:]
	if cmd.nargs >= 0 && len(args) != cmd.nargs ||
		cmd.nargs < 0 && len(args) < -cmd.nargs {
		return errors.Wrapf(errUsage, "usage: %s %s", name, cmd.args)
	}
	c, err := corpus.New(config)
	if err != nil {
		return err
	}
	defer func() {
		if err2 := c.Close(); err == nil {
			err = err2
		}
	}()
	return cmd.cb(c, config, args, w)
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return ioutil.ReadAll(os.Stdin)
	}
	return ioutil.ReadFile(name)
}

func indexCommand(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error {
	name := args[0]
	for _, filename := range args[1:] {
		b, err := readInput(filename)
		if err != nil {
			return err
		}
		if err = c.IndexText(name, string(b)); err != nil {
			return err
		}
	}
	return statsCommand(c, config, args[:1], w)
}

func searchCommand(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error {
	if !c.Exists(args[0]) {
		return errors.Wrapf(corpus.ErrNotFound, "%q", args[0])
	}
	return c.Do(args[0], func(t *btree.Tree) error {
		for _, word := range args[1:] {
			f, err := t.Search(words.Hash(word))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\n", words.Normalize(word), f)
		}
		return nil
	})
}

func statsCommand(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error {
	st, err := c.Stats(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d words, %d distinct, %d nodes\n", args[0], st.Words, st.Keys, st.Nodes)
	return nil
}

func similarCommand(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error {
	s, err := c.Similarity(args[0], args[1])
	if err != nil {
		return err
	}
	d, err := c.Distance(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "cosine %.6f\neuclidean %.6f\n", s, d)
	return nil
}

func closestCommand(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error {
	best, s, err := c.MostSimilar(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "cosine\t%s\t%.6f\n", best, s)
	best, s, err = c.MostSimilarTfIdf(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "tf-idf\t%s\t%.6f\n", best, s)
	return nil
}

func checkCommand(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error {
	for _, name := range args {
		if !c.Exists(name) {
			return errors.Wrapf(corpus.ErrNotFound, "%q", name)
		}
		err := c.Do(name, func(t *btree.Tree) error {
			if err := t.Check(); err != nil {
				return err
			}
			n1, err := t.TotalNumKeys()
			if err != nil {
				return err
			}
			n2, err := t.TotalNumKeysScan()
			if err != nil {
				return err
			}
			if n1 != n2 {
				return errors.Wrapf(btree.ErrCorrupt, "%d keys in tree, %d in store", n1, n2)
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "check %s", name)
		}
		fmt.Fprintf(w, "%s: ok\n", name)
	}
	return nil
}

func dumpCommand(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error {
	if !c.Exists(args[0]) {
		return errors.Wrapf(corpus.ErrNotFound, "%q", args[0])
	}
	return c.Do(args[0], func(t *btree.Tree) error {
		return t.ForEach(func(n *btree.Node) error {
			fmt.Fprintln(w, n)
			return nil
		})
	})
}

func snapshotCodec(config corpus.Config) (codec.Codec, error) {
	return codec.New(config.Password, config.Salt, config.Iterations)
}

func exportCommand(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error {
	v, err := c.Vector(args[0])
	if err != nil {
		return err
	}
	sc, err := snapshotCodec(config)
	if err != nil {
		return err
	}
	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	err = snapshot.Write(f, snapshot.FromMap(args[0], v), sc)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	return err
}

func importCommand(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error {
	sc, err := snapshotCodec(config)
	if err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	v, err := snapshot.Read(f, sc)
	if err != nil {
		return err
	}
	if err = c.Add(args[1], v.Map()); err != nil {
		return err
	}
	return statsCommand(c, config, args[1:], w)
}

func listCommand(c *corpus.Corpus, config corpus.Config, args []string, w io.Writer) error {
	names, err := c.Names()
	if err != nil {
		return err
	}
	if len(names) > 0 {
		fmt.Fprintln(w, strings.Join(names, "\n"))
	}
	return nil
}

func main() {
	flag.Usage = usage
	dir := flag.String("dir", "storage/btrees", "Directory of the document trees")
	backendp := flag.String("backend", factory.DefaultBackend,
		fmt.Sprintf("Backend to use (possible: %v)", factory.List()))
	password := flag.String("password", "", "Password (encrypts bolt/badger blocks and snapshots)")
	salt := flag.String("salt", "", "Salt")
	cachesize := flag.Int("cachesize", btree.CacheSize, "Number of btree nodes to cache per tree")
	duplicates := flag.String("duplicates", btree.DuplicateUpdate.String(),
		"What to do with re-inserted keys (update or append)")
	cpuprofile := flag.String("cpuprofile", "", "CPU profile file")
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}
	dp, err := btree.ParseDuplicatePolicy(*duplicates)
	if err != nil {
		log.Fatal(err)
	}
	config := corpus.Config{Dir: *dir,
		Backend:    *backendp,
		Password:   *password,
		Salt:       *salt,
		CacheSize:  *cachesize,
		Duplicates: dp}
	err = run(config, flag.Args(), os.Stdout)
	if errors.Cause(err) == errUsage {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Print(err)
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}
