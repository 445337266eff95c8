// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPostStatusValid(t *testing.T) {
	for _, s := range []PostStatus{PostStatusDraft, PostStatusPublished, PostStatusScheduled} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []PostStatus{"", "archived", "Published"} {
		if s.Valid() {
			t.Errorf("%q should not be valid", s)
		}
	}
}

func TestPostJSONOmitsEmptyMeta(t *testing.T) {
	p := Post{Title: "t", Status: PostStatusDraft}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "meta_data") {
		t.Errorf("nil meta should be omitted: %s", raw)
	}
}
