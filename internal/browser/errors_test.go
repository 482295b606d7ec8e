package browser

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := newErr(KindStaleIndex, "element", "label %d is stale", 3)
	if KindOf(err) != KindStaleIndex {
		t.Errorf("KindOf = %s", KindOf(err))
	}

	wrapped := fmt.Errorf("handling tool call: %w", err)
	if KindOf(wrapped) != KindStaleIndex {
		t.Errorf("KindOf through wrap = %s", KindOf(wrapped))
	}

	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("unclassified errors should default to internal")
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("socket closed")
	err := wrapErr(KindConnection, "connect", inner)
	if !errors.Is(err, inner) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
}

func TestRecoverable(t *testing.T) {
	recoverable := []Kind{
		KindConfig, KindProtocol, KindElementNotFound, KindStaleIndex,
		KindElementGone, KindNavigationTimeout, KindTabNotFound,
		KindLastTab, KindInvalidArgument,
	}
	for _, k := range recoverable {
		if !Recoverable(newErr(k, "op", "boom")) {
			t.Errorf("%s should be recoverable", k)
		}
	}
	for _, k := range []Kind{KindConnection, KindInternal} {
		if Recoverable(newErr(k, "op", "boom")) {
			t.Errorf("%s should be fatal to the session", k)
		}
	}
}
