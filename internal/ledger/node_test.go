package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"veriscan/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNode(t *testing.T, cfg NodeConfig) *Node {
	t.Helper()
	node := NewNode(NewMemoryStore(), NewRegistryContract(adminAddr), cfg, zerolog.Nop())
	t.Cleanup(node.Close)
	return node
}

func submitAndWait(t *testing.T, node *Node, from model.Address, method string, args json.RawMessage) (model.Receipt, error) {
	t.Helper()
	ctx := context.Background()
	pending, err := node.Submit(ctx, Transaction{From: from, Method: method, Args: args})
	require.NoError(t, err)
	return pending.Wait(ctx)
}

func TestNode_SubmitConfirms(t *testing.T) {
	node := newTestNode(t, NodeConfig{})

	receipt, err := submitAndWait(t, node, mfrAddr, MethodRegisterManufacturer, mustJSON(t, model.ManufacturerProfile{Name: "Acme"}))

	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.BlockNumber)
	assert.Len(t, receipt.TxHash, 66)
	assert.False(t, receipt.ConfirmedAt.IsZero())

	out, err := node.Query(context.Background(), ViewManufacturer, mustJSON(t, AddressArgs{Address: mfrAddr}))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"name":"Acme"`)
}

func TestNode_RevertIsReturned(t *testing.T) {
	node := newTestNode(t, NodeConfig{})

	_, err := submitAndWait(t, node, mfrAddr, MethodRequestVerification, nil)

	var rev *RevertError
	require.True(t, errors.As(err, &rev))
	assert.Equal(t, model.ErrCodeInvalidState, rev.Code)
}

func TestNode_HashesAreUnique(t *testing.T) {
	node := newTestNode(t, NodeConfig{})
	tx := Transaction{From: mfrAddr, Method: MethodRequestVerification}

	first, err := node.Submit(context.Background(), tx)
	require.NoError(t, err)
	second, err := node.Submit(context.Background(), tx)
	require.NoError(t, err)

	assert.NotEqual(t, first.Hash(), second.Hash())
}

func TestNode_WaitTimesOutAsNotConfirmed(t *testing.T) {
	node := newTestNode(t, NodeConfig{BlockTime: time.Second})

	pending, err := node.Submit(context.Background(), Transaction{From: mfrAddr, Method: MethodRegisterManufacturer,
		Args: mustJSON(t, model.ManufacturerProfile{Name: "Slow Co"})})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pending.Wait(ctx)

	assert.True(t, errors.Is(err, ErrNotConfirmed))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNode_ClosedIsUnavailable(t *testing.T) {
	node := NewNode(NewMemoryStore(), NewRegistryContract(adminAddr), NodeConfig{}, zerolog.Nop())
	node.Close()
	node.Close()

	_, err := node.Submit(context.Background(), Transaction{From: mfrAddr, Method: MethodRequestVerification})
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = node.Query(context.Background(), ViewStats, nil)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestNode_ConcurrentDuplicateSubmissions(t *testing.T) {
	node := newTestNode(t, NodeConfig{})
	_, err := submitAndWait(t, node, mfrAddr, MethodRegisterManufacturer, mustJSON(t, model.ManufacturerProfile{Name: "Acme"}))
	require.NoError(t, err)
	_, err = submitAndWait(t, node, adminAddr, MethodSetTrustFlags, mustJSON(t, TrustFlagArgs{Target: mfrAddr, Verified: boolPtr(true)}))
	require.NoError(t, err)

	const attempts = 8
	doc := productDoc(t, "0b7f3c1e-5555-4a2b-9c3d-4e5f6a7b8c9d")
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pending, err := node.Submit(context.Background(), Transaction{From: mfrAddr, Method: MethodRegisterProduct, Args: doc})
			if err != nil {
				errs[i] = err
				return
			}
			_, errs[i] = pending.Wait(context.Background())
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, err := range errs {
		var rev *RevertError
		switch {
		case err == nil:
			successes++
		case errors.As(err, &rev) && rev.Code == model.ErrCodeDuplicateID:
			duplicates++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, duplicates)
}
