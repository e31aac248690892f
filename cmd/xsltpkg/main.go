package main

import "github.com/goplus/xsltpkg/cmd/xsltpkg/internal"

func main() {
	internal.Execute()
}
