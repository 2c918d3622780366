//go:build !unix

package main

import (
	"errors"
	"os"
)

var errNoPipes = errors.New("named pipes are not supported on this platform")

func createPipe(_ string) (*os.File, error) {
	return nil, errNoPipes
}

func removePipe(_ string) {}
