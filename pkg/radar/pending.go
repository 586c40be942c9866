package radar

import (
	"container/list"
	"context"
	"time"

	"github.com/robotalks/radariq.go/pkg/msgs"
)

// Pending is an outstanding request waiting for the device response.
type Pending struct {
	req    msgs.Request
	sess   *Session
	elem   *list.Element
	sentAt time.Time
	done   chan struct{}

	// cancelledAt is set when the pending is left as a placeholder for a
	// response which may still arrive.
	cancelledAt time.Time

	resp msgs.Response
	err  error
}

// Command returns the command of the request.
func (p *Pending) Command() msgs.Command {
	return p.req.Command()
}

// Done is closed when the pending is resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the response once Done is closed.
func (p *Pending) Result() (msgs.Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	default:
		return nil, ErrInFlight
	}
}

// Wait blocks until the response arrives or ctx is done. On ctx expiry
// the pending is cancelled and ctx.Err() returned.
func (p *Pending) Wait(ctx context.Context) (msgs.Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		if p.Cancel() {
			return nil, ctx.Err()
		}
		<-p.done
		return p.resp, p.err
	}
}

// Cancel withdraws the pending. It keeps its place in the queue until the
// stale timeout, so a late response is discarded instead of resolving the
// next request. Returns false if the pending was already resolved.
func (p *Pending) Cancel() bool {
	if p.sess == nil {
		return false
	}
	p.sess.lock.Lock()
	defer p.sess.lock.Unlock()
	if p.elem == nil || p.cancelled() {
		return false
	}
	p.cancelledAt = p.sess.now()
	p.resolve(nil, ErrCancelled)
	return true
}

func (p *Pending) cancelled() bool {
	return !p.cancelledAt.IsZero()
}

func (p *Pending) resolve(resp msgs.Response, err error) {
	p.resp, p.err = resp, err
	close(p.done)
}

// pendingQueue holds the pendings of one command in request order,
// including placeholders of cancelled ones.
type pendingQueue struct {
	list.List
}

// purgeExpired drops placeholders cancelled at least expiry ago.
func (q *pendingQueue) purgeExpired(now time.Time, expiry time.Duration) {
	for elem := q.Front(); elem != nil; {
		next := elem.Next()
		if p := elem.Value.(*Pending); p.cancelled() && now.Sub(p.cancelledAt) >= expiry {
			q.Remove(elem)
			p.elem = nil
		}
		elem = next
	}
}

// pop removes the front pending, stale is true if it is a placeholder.
func (q *pendingQueue) pop() (p *Pending, stale bool) {
	elem := q.Front()
	if elem == nil {
		return nil, false
	}
	q.Remove(elem)
	p = elem.Value.(*Pending)
	p.elem = nil
	if p.cancelled() {
		return nil, true
	}
	return p, false
}

// waitAs waits for a pending and converts the response.
func waitAs[T msgs.Response](ctx context.Context, p *Pending, err error) (v T, _ error) {
	if err != nil {
		return v, err
	}
	resp, err := p.Wait(ctx)
	if err != nil {
		return v, err
	}
	v, ok := resp.(T)
	if !ok {
		return v, ErrUnexpectedResponse
	}
	return v, nil
}
