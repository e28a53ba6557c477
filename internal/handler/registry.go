package handler

import "sync"

// Registry は接続をまたいで、各チャネルを join している接続の数を数えます。
// 同じチャネル ID に複数の接続が join した場合、最後の接続が抜けたときだけ engine から削除します。
type Registry struct {
	mu   sync.Mutex
	refs map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		refs: make(map[string]int),
	}
}

// join は add を実行し、newRef なら参照数を1つ増やします。
// add は leave の remove と排他に実行されます。
func (r *Registry) join(id string, newRef bool, add func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	add()
	if newRef {
		r.refs[id]++
	}
}

// leave は参照を1つ外し、最後の参照だった場合だけ remove を実行します。
func (r *Registry) leave(id string, remove func() error) (removed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := r.refs[id]; n > 1 {
		r.refs[id] = n - 1
		return false, nil
	}

	delete(r.refs, id)
	return true, remove()
}

// Refs は id を join している接続の数を返します。
func (r *Registry) Refs(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.refs[id]
}
