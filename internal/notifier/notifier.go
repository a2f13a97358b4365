package notifier

import (
	"sync"

	"github.com/google/uuid"
)

// カート更新のプロセス内通知。ペイロードは持たない。
// 配信は同期・登録順。キューや再送は無いので、配信時に購読していなかった側は
// ストレージを読み直して自分で初期化する。
type CartNotifier struct {
	mu   sync.Mutex
	subs []subscriber
}

type subscriber struct {
	id string
	fn func()
}

func New() *CartNotifier {
	return &CartNotifier{}
}

// Subscribeは購読を登録して購読IDを返す。
func (n *CartNotifier) Subscribe(fn func()) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.NewString()
	n.subs = append(n.subs, subscriber{id: id, fn: fn})
	return id
}

// Unsubscribeは購読を外す。知らないIDは無視。
func (n *CartNotifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			return
		}
	}
}

// Publishは登録順に同期で呼び出す。
func (n *CartNotifier) Publish() {
	n.mu.Lock()
	snapshot := make([]subscriber, len(n.subs))
	copy(snapshot, n.subs)
	n.mu.Unlock()

	for _, s := range snapshot {
		s.fn()
	}
}
