// Package idutils generates correlation IDs for outgoing fetch_key
// requests, following internal/utils/idutils's snowflake-node idiom
// rather than a plain random token: a snowflake ID stays sortable by
// issuance time, which is useful when grepping a key server's logs for
// one client's request sequence.
package idutils

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
)

// NewRequestID generates a correlation ID for one key-server request.
func NewRequestID() (string, error) {
	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(1)
	})
	if nodeErr != nil {
		return "", errors.Wrap(nodeErr, "idutils: creating snowflake node")
	}
	return node.Generate().String(), nil
}
