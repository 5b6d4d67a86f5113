package handle

import (
	"context"

	"github.com/cryptoproxy-io/cryptoproxy/internal/engine"
	"github.com/cryptoproxy-io/cryptoproxy/internal/registry"
	"github.com/cryptoproxy-io/cryptoproxy/internal/wire"
)

// Create runs the factory creation protocol: allocate a fresh id, embed
// it in the outgoing request as the sole NewID, and only construct a
// Core -- which is the thing that ever arms the destroy protocol -- if
// the server actually instantiated a skeleton under that id. On a
// domain-level failure the candidate id is simply never promoted to a
// Core: nothing about this call sends, or will ever send, a destroy
// message for it.
//
// A response is read two ways depending on what the call kind produced:
// a dedicated Creation tag, or, when the response carries none, the plain
// domain error/success on the response envelope. In the second case a
// success adopts the pre-assigned id; no returned value is read. Every
// factory task in this repo's wire.task.go catalog uses the Creation tag;
// see DESIGN.md's Open Questions entry for why the
// Result<IdentifiablePointer> encoding was not also implemented.
func Create(
	ctx context.Context,
	eng *engine.Engine,
	ids *registry.IdentityRegistry,
	kind wire.ObjectKind,
	task wire.TaskID,
	callerID wire.ProxyID,
	args []wire.Value,
	opts ...Option,
) (*Core, error) {
	id := ids.Fresh()
	req := &wire.Request{Task: task, CallerProxyID: callerID, Args: args, NewIDs: []wire.ProxyID{id}}

	resp, err := eng.Invoke(ctx, req)
	if err != nil {
		return nil, err // framing fault; already routed through AbortFunc
	}
	if resp.Creation == nil {
		if err := resp.Err(); err != nil {
			return nil, err
		}
		return NewCore(id, kind, eng, opts...), nil
	}
	if !resp.Creation.Created {
		return nil, &wire.DomainError{Task: resp.BasicTask, Kind: resp.Creation.ErrorKind}
	}
	return NewCore(id, kind, eng, opts...), nil
}

// CreateMany implements the vector-of-handles out-parameter algorithm:
// pre-create up to maxCandidates candidate ids, propose all
// of them as NewIDs on one request, and promote only the first Count of
// them (the server reports how many it actually used) to live Cores. The
// remaining candidates are simply never turned into Cores, and nothing
// about a bare wire.ProxyID that was never wrapped in a Core can ever
// trigger a destroy send. Ordering of the promoted ids matches request
// order.
func CreateMany(
	ctx context.Context,
	eng *engine.Engine,
	ids *registry.IdentityRegistry,
	kind wire.ObjectKind,
	task wire.TaskID,
	callerID wire.ProxyID,
	args []wire.Value,
	maxCandidates int,
	opts ...Option,
) ([]*Core, error) {
	ids.Lock()
	candidates := make([]wire.ProxyID, maxCandidates)
	for i := range candidates {
		candidates[i] = ids.Fresh()
	}
	ids.Unlock()

	req := &wire.Request{Task: task, CallerProxyID: callerID, Args: args, NewIDs: candidates}
	resp, err := eng.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Creation == nil {
		return nil, resp.Err()
	}
	if !resp.Creation.Created {
		return nil, &wire.DomainError{Task: resp.BasicTask, Kind: resp.Creation.ErrorKind}
	}

	count := int(resp.Creation.Count)
	if count > len(candidates) {
		count = len(candidates) // defensive: server must not propose more than it was offered
	}
	cores := make([]*Core, count)
	for i := 0; i < count; i++ {
		cores[i] = NewCore(candidates[i], kind, eng, opts...)
	}
	return cores, nil
}
