// Package ledger supplies the default sealclient.LedgerClient: a thin
// wrapper over a Hyperledger Fabric channel client that resolves a key
// server's on-chain object by querying a "getObject" chaincode function,
// the same channel.Client.Query idiom
// internal/blockchain/bcao/fabric_impl uses throughout this corpus.
package ledger

import (
	"context"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/pkg/errors"
)

// FabricLedgerClient resolves key server objects by querying a fixed
// chaincode's getObject function on a fixed channel.
type FabricLedgerClient struct {
	Channel     *channel.Client
	ChaincodeID string
}

// NewFabricLedgerClient wraps an already-instantiated channel client.
func NewFabricLedgerClient(channelClient *channel.Client, chaincodeID string) *FabricLedgerClient {
	return &FabricLedgerClient{Channel: channelClient, ChaincodeID: chaincodeID}
}

// GetObject implements sealclient.LedgerClient by invoking getObject with
// the 32-byte object ID as its sole argument.
func (c *FabricLedgerClient) GetObject(ctx context.Context, objectID [32]byte) ([]byte, error) {
	if c.Channel == nil {
		return nil, errors.New("ledger: no channel client configured")
	}
	resp, err := c.Channel.Query(channel.Request{
		ChaincodeID: c.ChaincodeID,
		Fcn:         "getObject",
		Args:        [][]byte{objectID[:]},
	})
	if err != nil {
		return nil, errors.Wrap(err, "ledger: querying getObject")
	}
	return resp.Payload, nil
}
