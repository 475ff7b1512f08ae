package session_test

import (
	"context"
	"fmt"

	"github.com/aretw0/stash/pkg/hostsession"
	"github.com/aretw0/stash/pkg/session"
)

func Example() {
	ctx := context.Background()
	store := hostsession.New("", nil)

	f, err := session.New(ctx, store)
	if err != nil {
		fmt.Println("setup failed:", err)
		return
	}

	f.Set("user_id", 42)
	v, ok, _ := f.Get("user_id")
	fmt.Println(v, ok)

	f.RemoveAll()
	_, ok, _ = f.Get("user_id")
	fmt.Println(ok)

	locked, _ := f.Default().IsLocked()
	fmt.Println("locked:", locked)
	// Output:
	// 42 true
	// false
	// locked: true
}
