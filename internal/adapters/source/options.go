package source

import "io/fs"

// Option applies a configuration option to the FileSource.
type Option func(*FileSource)

// WithFormat overrides the format derived from the file extension.
func WithFormat(f Format) Option {
	return func(s *FileSource) {
		if f != "" {
			s.format = f
		}
	}
}

// WithFileMode sets the permissions of files written by Save.
func WithFileMode(perm fs.FileMode) Option {
	return func(s *FileSource) {
		if perm != 0 {
			s.perm = perm
		}
	}
}
