package framecache

import "archive/tar"

func tarHeader(name string) *tar.Header {
	return &tar.Header{Name: name, Typeflag: tar.TypeReg}
}
