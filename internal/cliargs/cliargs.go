// Package cliargs parses GNU-style "--key value" startup arguments and exposes
// typed, optional lookups over them.
package cliargs

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"rsc.io/getopt"
)

// Keys names the arguments that carry window settings.
type Keys struct {
	PosX    string
	PosY    string
	Topmost string
}

// DefaultKeys returns the stock argument names.
func DefaultKeys() Keys {
	return Keys{
		PosX:    "pos-x",
		PosY:    "pos-y",
		Topmost: "topmost",
	}
}

type kind int

const (
	kindString kind = iota
	kindInt
	kindBool
)

// optional is a flag.Value that remembers whether it was set.
type optional struct {
	kind kind
	raw  string
	set  bool
	i    int
	b    bool
}

func (o *optional) String() string { return o.raw }

func (o *optional) Set(s string) error {
	switch o.kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("not an integer: %q", s)
		}
		o.i = n
	case kindBool:
		b, err := parseBool(s)
		if err != nil {
			return err
		}
		o.b = b
	}
	o.raw = s
	o.set = true
	return nil
}

// parseBool accepts an integer (non-zero is true) or true/false.
func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n != 0, nil
	}
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// Args is a set of optional typed arguments.
type Args struct {
	fs     *getopt.FlagSet
	values map[string]*optional
}

// New returns an empty argument set. Parse errors are returned, not printed.
func New(name string) *Args {
	fs := getopt.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return &Args{
		fs:     fs,
		values: make(map[string]*optional),
	}
}

// FlagSet exposes the underlying flag set so callers can register plain
// flags next to the optional ones.
func (a *Args) FlagSet() *getopt.FlagSet {
	return a.fs
}

// Int registers an optional integer argument. short may be empty.
func (a *Args) Int(key, short, usage string) {
	a.define(key, short, usage, kindInt)
}

// Bool registers an optional boolean argument that always takes a value
// ("--topmost 1", "--topmost false").
func (a *Args) Bool(key, short, usage string) {
	a.define(key, short, usage, kindBool)
}

// String registers an optional string argument.
func (a *Args) String(key, short, usage string) {
	a.define(key, short, usage, kindString)
}

// WindowKeys registers the window settings under keys with the -x, -y and
// -t aliases.
func (a *Args) WindowKeys(keys Keys) {
	a.Int(keys.PosX, "x", "window x position")
	a.Int(keys.PosY, "y", "window y position")
	a.Bool(keys.Topmost, "t", "pin the window above others (non-zero or true)")
}

func (a *Args) define(key, short, usage string, k kind) {
	v := &optional{kind: k}
	a.values[key] = v
	a.fs.Var(v, key, usage)
	if short != "" {
		a.fs.Alias(short, key)
	}
}

// Parse parses args. Arguments after "--" or the first non-flag argument
// are left in Args.
func (a *Args) Parse(args []string) error {
	return a.fs.Parse(args)
}

// Args returns the remaining positional arguments.
func (a *Args) Args() []string {
	return a.fs.Args()
}

// GetInt returns the value of key and whether it was supplied.
func (a *Args) GetInt(key string) (int, bool) {
	v, ok := a.lookup(key, kindInt)
	if !ok {
		return 0, false
	}
	return v.i, true
}

// GetBool returns the value of key and whether it was supplied.
func (a *Args) GetBool(key string) (bool, bool) {
	v, ok := a.lookup(key, kindBool)
	if !ok {
		return false, false
	}
	return v.b, true
}

// GetString returns the raw value of any supplied key.
func (a *Args) GetString(key string) (string, bool) {
	v, ok := a.values[key]
	if !ok || !v.set {
		return "", false
	}
	return v.raw, true
}

// Keys returns the supplied optional keys in sorted order.
func (a *Args) Keys() []string {
	var keys []string
	for k, v := range a.values {
		if v.set {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (a *Args) lookup(key string, k kind) (*optional, bool) {
	v, ok := a.values[key]
	if !ok || !v.set || v.kind != k {
		return nil, false
	}
	return v, true
}
