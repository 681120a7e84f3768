//go:build !unix

package cli

import "os"

func notifyEdges() (<-chan os.Signal, func()) {
	return nil, func() {}
}
