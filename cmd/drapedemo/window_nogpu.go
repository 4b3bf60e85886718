//go:build nogpu

package main

import "errors"

func runWindow(config) error {
	return errors.New("drapedemo: built with the nogpu tag; window mode is unavailable")
}
