//go:build !linux && !darwin
// +build !linux,!darwin

package vfsmount

import "go.uber.org/zap"

func Mount(dir string, source Source, logger *zap.Logger) (Server, error) {
	return nil, ErrUnsupported
}
