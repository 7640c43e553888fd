//go:build linux

package service

import (
	"crypto/sha256"
	"io"
	"os"

	"github.com/prometheus/procfs"
)

func selfProc(procMount string) (procfs.Proc, error) {
	fsys, err := procfs.NewFS(procMount)
	if err != nil {
		return procfs.Proc{}, err
	}
	return fsys.Self()
}

func mappedFiles(procMount string) ([]string, error) {
	proc, err := selfProc(procMount)
	if err != nil {
		return nil, err
	}
	maps, err := proc.ProcMaps()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(maps))
	for _, m := range maps {
		if m.Pathname != "" {
			paths = append(paths, m.Pathname)
		}
	}
	return paths, nil
}

func executableDigest(procMount string) ([]byte, error) {
	proc, err := selfProc(procMount)
	if err != nil {
		return nil, err
	}
	path, err := proc.Executable()
	if err != nil {
		return nil, err
	}
	return fileDigest(path)
}

func fileDigest(path string) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 -- path is this process's own executable
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
