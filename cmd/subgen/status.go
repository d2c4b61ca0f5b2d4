package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusError
)

func statusLabel(kind statusKind, colorize bool) string {
	var (
		label string
		color text.Color
	)
	switch kind {
	case statusOK:
		label, color = "OK", text.FgGreen
	case statusWarn:
		label, color = "WARN", text.FgYellow
	default:
		label, color = "ERROR", text.FgRed
	}
	if !colorize {
		return label
	}
	return color.Sprint(label)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
