package conversation

import (
	"strings"
	"testing"
)

func TestQuestionFlow(t *testing.T) {
	sess, prompt := Start(FormQuestion)
	if prompt != PromptAskQuestion {
		t.Fatalf("expected question prompt, got %v", prompt)
	}
	if sess.State != StateAwaitingQuestion {
		t.Fatalf("expected awaiting_question, got %q", sess.State)
	}

	sess, res := Advance(sess, Input{Text: "Де моє замовлення?"})
	if !res.Done {
		t.Fatal("expected flow to complete after the question text")
	}
	if res.Prompt != PromptAccepted {
		t.Errorf("expected accepted prompt, got %v", res.Prompt)
	}
	if res.InquiryBody != "Де моє замовлення?" {
		t.Errorf("unexpected inquiry body %q", res.InquiryBody)
	}
	if sess.State != StateIdle {
		t.Errorf("expected session to be cleared, got %q", sess.State)
	}
}

func TestTrackingFlow_NameThenOrderNumber(t *testing.T) {
	sess, prompt := Start(FormTracking)
	if prompt != PromptAskName {
		t.Fatalf("expected name prompt, got %v", prompt)
	}

	sess, res := Advance(sess, Input{Text: "Олена Коваль"})
	if res.Done || res.Prompt != PromptAskOrderNumber {
		t.Fatalf("expected order-number prompt, got %+v", res)
	}
	if sess.State != StateAwaitingOrderNumber {
		t.Fatalf("expected awaiting_order_number, got %q", sess.State)
	}

	_, res = Advance(sess, Input{Text: "ZP-1042"})
	if !res.Done || res.Prompt != PromptAccepted {
		t.Fatalf("expected terminal transition, got %+v", res)
	}
	for _, want := range []string{"Запит ТТН", "Олена Коваль", "ZP-1042"} {
		if !strings.Contains(res.InquiryBody, want) {
			t.Errorf("inquiry body %q missing %q", res.InquiryBody, want)
		}
	}
}

func TestInvoiceFlow_Label(t *testing.T) {
	sess, _ := Start(FormInvoice)
	sess, _ = Advance(sess, Input{Text: "Іван"})
	_, res := Advance(sess, Input{Text: "77"})
	if !strings.Contains(res.InquiryBody, "рахунку-фактури") {
		t.Errorf("inquiry body %q missing invoice label", res.InquiryBody)
	}
}

func TestCancelAbortsFromAnyState(t *testing.T) {
	for _, kind := range []FormKind{FormQuestion, FormTracking} {
		sess, _ := Start(kind)
		sess, res := Advance(sess, Input{Text: CancelText})
		if !res.Done || res.Prompt != PromptCancelled {
			t.Errorf("%s: expected cancellation, got %+v", kind, res)
		}
		if res.InquiryBody != "" {
			t.Errorf("%s: cancellation must not produce an inquiry", kind)
		}
		if sess.State != StateIdle {
			t.Errorf("%s: expected idle session after cancel", kind)
		}
	}
}

func TestEmptyInputRepeatsPrompt(t *testing.T) {
	sess, _ := Start(FormTracking)
	next, res := Advance(sess, Input{Text: "   "})
	if res.Done || res.Prompt != PromptAskName {
		t.Fatalf("expected name prompt to repeat, got %+v", res)
	}
	if next.State != StateAwaitingName {
		t.Errorf("expected state unchanged, got %q", next.State)
	}
}

func TestManager_OneSessionPerUser(t *testing.T) {
	m := NewManager()

	if got := m.Get(1); got.State != StateIdle {
		t.Fatalf("expected idle default, got %q", got.State)
	}

	sess, _ := Start(FormQuestion)
	m.Set(1, sess)
	m.Set(2, Session{State: StateAwaitingBroadcastContent})

	if got := m.Get(1); got.State != StateAwaitingQuestion {
		t.Errorf("expected user 1 awaiting question, got %q", got.State)
	}
	if got := m.Get(2); got.State != StateAwaitingBroadcastContent {
		t.Errorf("expected user 2 awaiting broadcast content, got %q", got.State)
	}

	m.Clear(1)
	if got := m.Get(1); got.State != StateIdle {
		t.Errorf("expected cleared session, got %q", got.State)
	}
}
