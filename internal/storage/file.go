package storage

import (
	"os"
	"syscall"
)

// blockFile wraps an *os.File with fixed-size block reads/writes at byte
// offsets, and holds an OS-level exclusive lock for the life of the
// process. It has no notion of pages, headers, or caching -- that's the
// Pager's job -- it only knows how to move bytes.
type blockFile struct {
	f        *os.File
	pageSize int
}

func openBlockFile(path string, pageSize int) (*blockFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, &IoError{Op: "open", Err: err}
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, &IoError{Op: "flock", Err: err}
	}

	return &blockFile{f: f, pageSize: pageSize}, nil
}

func (bf *blockFile) size() (int64, error) {
	info, err := bf.f.Stat()
	if err != nil {
		return 0, &IoError{Op: "stat", Err: err}
	}
	return info.Size(), nil
}

func (bf *blockFile) readBlock(num PageNum) ([]byte, error) {
	buf := make([]byte, bf.pageSize)
	_, err := bf.f.ReadAt(buf, int64(num)*int64(bf.pageSize))
	if err != nil {
		return nil, &IoError{Op: "read", Err: err}
	}
	return buf, nil
}

func (bf *blockFile) writeBlock(num PageNum, data []byte) error {
	if len(data) != bf.pageSize {
		return &CorruptPage{PageNum: num, Detail: "write buffer size mismatch"}
	}
	if _, err := bf.f.WriteAt(data, int64(num)*int64(bf.pageSize)); err != nil {
		return &IoError{Op: "write", Err: err}
	}
	return nil
}

func (bf *blockFile) truncate(numPages int) error {
	if err := bf.f.Truncate(int64(numPages) * int64(bf.pageSize)); err != nil {
		return &IoError{Op: "truncate", Err: err}
	}
	return nil
}

func (bf *blockFile) sync() error {
	if err := bf.f.Sync(); err != nil {
		return &IoError{Op: "sync", Err: err}
	}
	return nil
}

func (bf *blockFile) close() error {
	_ = syscall.Flock(int(bf.f.Fd()), syscall.LOCK_UN)
	if err := bf.f.Close(); err != nil {
		return &IoError{Op: "close", Err: err}
	}
	return nil
}
