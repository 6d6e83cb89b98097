package memory

import "github.com/iliyamo/invoicing-portal/internal/model"

// memdb hands out the stored pointers, so every value crossing the store
// boundary is copied.

func cloneAccount(a *model.Account) *model.Account {
	cp := *a
	cp.Settings = cloneMap(a.Settings)
	return &cp
}

func cloneSession(s *model.Session) *model.Session {
	cp := *s
	if s.LoggedOutAt != nil {
		t := *s.LoggedOutAt
		cp.LoggedOutAt = &t
	}
	return &cp
}

func cloneEntity(e *model.Entity) *model.Entity {
	cp := *e
	return &cp
}

func cloneBuyer(b *model.Buyer) *model.Buyer {
	cp := *b
	return &cp
}

func cloneInvoice(inv *model.Invoice) *model.Invoice {
	cp := *inv
	cp.Items = append([]model.InvoiceItem(nil), inv.Items...)
	if inv.SentAt != nil {
		t := *inv.SentAt
		cp.SentAt = &t
	}
	return &cp
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	}
	return v
}
