package internal

import "testing"

func violationFor(vs []Violation, field string) *Violation {
	for i := range vs {
		if vs[i].Field == field {
			return &vs[i]
		}
	}
	return nil
}

func TestValidateRequired(t *testing.T) {
	shape := Shape{
		"title": {Kind: KindString, Required: true, MinLen: 1},
	}
	_, vs := shape.Validate(map[string]any{})
	if violationFor(vs, "title") == nil {
		t.Fatalf("expected violation for missing title, got %+v", vs)
	}
}

func TestValidateListingRequirements(t *testing.T) {
	body := map[string]any{
		"title":        "Coach",
		"sport":        "soccer",
		"requirements": []any{},
	}
	_, vs := listingShape.Validate(body)
	if violationFor(vs, "requirements") == nil {
		t.Fatalf("expected violation naming requirements, got %+v", vs)
	}
}

func TestValidateNumericString(t *testing.T) {
	shape := Shape{
		"height_cm": {Kind: KindInt, Min: intp(50), Max: intp(260)},
	}

	clean, vs := shape.Validate(map[string]any{"height_cm": "183"})
	if len(vs) != 0 {
		t.Fatalf("numeric string should parse, got %+v", vs)
	}
	if clean["height_cm"] != 183 {
		t.Fatalf("expected 183, got %v", clean["height_cm"])
	}

	_, vs = shape.Validate(map[string]any{"height_cm": "tall"})
	if violationFor(vs, "height_cm") == nil {
		t.Fatal("non-numeric string must be rejected, not stored")
	}

	_, vs = shape.Validate(map[string]any{"height_cm": 183.5})
	if violationFor(vs, "height_cm") == nil {
		t.Fatal("fractional value must be rejected, not truncated")
	}
}

func TestValidateRange(t *testing.T) {
	shape := Shape{
		"experience_years": {Kind: KindInt, Min: intp(0), Max: intp(60)},
	}
	_, vs := shape.Validate(map[string]any{"experience_years": float64(-1)})
	if violationFor(vs, "experience_years") == nil {
		t.Fatalf("expected out-of-range violation, got %+v", vs)
	}
}

func TestValidatePartialNull(t *testing.T) {
	shape := Shape{
		"bio":   {Kind: KindString, AllowNull: true},
		"sport": {Kind: KindString, MinLen: 1},
	}

	// absent field stays absent
	clean, vs := shape.Validate(map[string]any{"sport": "hockey"})
	if len(vs) != 0 {
		t.Fatalf("unexpected violations: %+v", vs)
	}
	if _, present := clean["bio"]; present {
		t.Fatal("absent field must not appear in the narrowed value")
	}

	// explicit null clears when allowed
	clean, vs = shape.Validate(map[string]any{"bio": nil})
	if len(vs) != 0 {
		t.Fatalf("unexpected violations: %+v", vs)
	}
	if v, present := clean["bio"]; !present || v != nil {
		t.Fatalf("explicit null should pass through as nil, got %v present=%v", v, present)
	}

	// explicit null rejected when not allowed
	_, vs = shape.Validate(map[string]any{"sport": nil})
	if violationFor(vs, "sport") == nil {
		t.Fatalf("expected null violation for sport, got %+v", vs)
	}
}

func TestValidateEnum(t *testing.T) {
	clean, vs := appStatusShape.Validate(map[string]any{"status": "shortlisted"})
	if len(vs) != 0 || clean["status"] != "shortlisted" {
		t.Fatalf("expected clean pass, got %v %+v", clean, vs)
	}

	_, vs = appStatusShape.Validate(map[string]any{"status": "promoted"})
	if violationFor(vs, "status") == nil {
		t.Fatalf("expected enum violation, got %+v", vs)
	}

	// withdrawn is athlete-only, never a client transition target
	_, vs = appStatusShape.Validate(map[string]any{"status": "withdrawn"})
	if violationFor(vs, "status") == nil {
		t.Fatalf("withdrawn must not be accepted on the status endpoint, got %+v", vs)
	}
}

func TestValidateUnknownField(t *testing.T) {
	shape := Shape{"name": {Kind: KindString}}
	_, vs := shape.Validate(map[string]any{"name": "x", "admin": true})
	if violationFor(vs, "admin") == nil {
		t.Fatalf("expected unknown field violation, got %+v", vs)
	}
}

func TestValidateIntList(t *testing.T) {
	clean, vs := bulkIDShape.Validate(map[string]any{"ids": []any{float64(1), float64(2)}})
	if len(vs) != 0 {
		t.Fatalf("unexpected violations: %+v", vs)
	}
	ids := clean["ids"].([]int)
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("unexpected ids: %v", ids)
	}

	_, vs = bulkIDShape.Validate(map[string]any{"ids": []any{"a"}})
	if violationFor(vs, "ids") == nil {
		t.Fatalf("expected violation for non-integer ids, got %+v", vs)
	}
}
