package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func loadPetstore(t *testing.T) *Document {
	t.Helper()

	data, err := os.ReadFile("testdata/petstore.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func TestParse_KeepsPathAndPropertyOrder(t *testing.T) {
	doc := loadPetstore(t)

	if doc.Title() != "Petstore" {
		t.Fatalf("expected title Petstore, got %q", doc.Title())
	}

	var paths []string
	for pair := doc.Paths.Oldest(); pair != nil; pair = pair.Next() {
		paths = append(paths, pair.Key)
	}
	if strings.Join(paths, ",") != "/pets,/pets/{petId}" {
		t.Fatalf("unexpected path order: %v", paths)
	}

	pet, err := Resolve("#/components/schemas/Pet", doc)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	var props []string
	for pair := pet.Properties.Oldest(); pair != nil; pair = pair.Next() {
		props = append(props, pair.Key)
	}
	if strings.Join(props, ",") != "id,name,owner" {
		t.Fatalf("unexpected property order: %v", props)
	}
	if !pet.IsRequired("name") || pet.IsRequired("owner") {
		t.Fatalf("unexpected required flags: %v", pet.Required)
	}
}

func TestParse_JSONWithTabs(t *testing.T) {
	data := "{\n\t\"openapi\": \"3.0.3\",\n\t\"info\": {\"title\": \"T\", \"version\": \"1\"},\n\t\"paths\": {\"/b\": {}, \"/a\": {}}\n}"

	doc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Paths.Len() != 2 || doc.Paths.Oldest().Key != "/b" {
		t.Fatalf("expected /b first, got %v", doc.Paths.Oldest().Key)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("   ")); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if _, err := Parse([]byte("- a\n- b\n")); err == nil {
		t.Fatalf("expected error for non-mapping root")
	}
	if _, err := Parse([]byte(`{"openapi": "3.0.3"} {}`)); err == nil {
		t.Fatalf("expected error for trailing data")
	}
}

func TestDocument_JSONRoundTripKeepsOrder(t *testing.T) {
	doc := loadPetstore(t)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.HasPrefix(string(data), `{"openapi":"3.0.3","info":`) {
		t.Fatalf("unexpected prefix: %.60s", data)
	}
	if strings.Index(string(data), `"/pets"`) > strings.Index(string(data), `"/pets/{petId}"`) {
		t.Fatalf("path order not preserved")
	}

	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Paths.Len() != 2 {
		t.Fatalf("expected 2 paths, got %d", back.Paths.Len())
	}
	if _, err := Resolve("#/components/schemas/Pet", &back); err != nil {
		t.Fatalf("Resolve on round-tripped document failed: %v", err)
	}
}

func TestResolve_FollowsNestedReferences(t *testing.T) {
	doc := loadPetstore(t)

	s, err := Resolve("#/components/schemas/PetAlias", doc)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if s.Type != "object" || s.Properties.Len() != 3 {
		t.Fatalf("expected Pet object, got %+v", s)
	}
}

func TestResolve_NotFound(t *testing.T) {
	doc := loadPetstore(t)

	for _, ref := range []string{
		"#/components/schemas/Missing",
		"#/components/nothing/here",
		"other.yaml#/components/schemas/Pet",
		"",
	} {
		_, err := Resolve(ref, doc)
		if !errors.Is(err, ErrRefNotFound) {
			t.Fatalf("ref %q: expected ErrRefNotFound, got %v", ref, err)
		}
		var refErr *RefError
		if !errors.As(err, &refErr) || refErr.Ref != ref {
			t.Fatalf("ref %q: expected RefError naming the ref, got %v", ref, err)
		}
	}
}

const cyclicDoc = `
openapi: 3.0.3
info: {title: cyc, version: "1"}
paths: {}
components:
  schemas:
    Loop:
      $ref: "#/components/schemas/LoopBack"
    LoopBack:
      $ref: "#/components/schemas/Loop"
    Self:
      $ref: "#/components/schemas/Self"
    a/b:
      type: boolean
    c~d:
      type: number
    list:
      - type: string
      - type: integer
`

func TestResolve_CyclicReference(t *testing.T) {
	doc, err := Parse([]byte(cyclicDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for _, ref := range []string{"#/components/schemas/Loop", "#/components/schemas/Self"} {
		if _, err := Resolve(ref, doc); !errors.Is(err, ErrCyclicReference) {
			t.Fatalf("ref %q: expected ErrCyclicReference, got %v", ref, err)
		}
	}
}

func TestLookup_EscapedSegmentsAndIndexes(t *testing.T) {
	doc, err := Parse([]byte(cyclicDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	s, err := Resolve("#/components/schemas/a~1b", doc)
	if err != nil || s.Type != "boolean" {
		t.Fatalf("expected boolean for a/b, got %v, %v", s, err)
	}
	s, err = Resolve("#/components/schemas/c~0d", doc)
	if err != nil || s.Type != "number" {
		t.Fatalf("expected number for c~d, got %v, %v", s, err)
	}
	s, err = Resolve("#/components/schemas/list/1", doc)
	if err != nil || s.Type != "integer" {
		t.Fatalf("expected integer at list/1, got %v, %v", s, err)
	}
	if _, err := Resolve("#/components/schemas/list/7", doc); !errors.Is(err, ErrRefNotFound) {
		t.Fatalf("expected ErrRefNotFound for out of range index, got %v", err)
	}
}

func TestResolveParameterAndRequestBody(t *testing.T) {
	doc := loadPetstore(t)

	item, _ := doc.Paths.Get("/pets/{petId}")
	p, err := ResolveParameter(item.Parameters[0], doc)
	if err != nil {
		t.Fatalf("ResolveParameter failed: %v", err)
	}
	if p.Name != "petId" || p.In != "path" || !p.Required {
		t.Fatalf("unexpected parameter: %+v", p)
	}

	pets, _ := doc.Paths.Get("/pets")
	body, err := ResolveRequestBody(pets.Post.RequestBody, doc)
	if err != nil {
		t.Fatalf("ResolveRequestBody failed: %v", err)
	}
	schema := JSONSchema(body.Content)
	if schema == nil || schema.Ref != "#/components/schemas/NewPet" {
		t.Fatalf("unexpected body schema: %+v", schema)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		schema *Schema
		want   Kind
	}{
		{nil, KindNone},
		{&Schema{}, KindNone},
		{&Schema{Ref: "#/x", Type: "object"}, KindReference},
		{&Schema{Properties: NewSchemaMap()}, KindObject},
		{&Schema{Type: "array", Items: &Schema{Type: "string"}}, KindArray},
		{&Schema{Type: "array"}, KindPrimitive},
		{&Schema{Type: "object"}, KindPrimitive},
		{&Schema{Type: "integer"}, KindPrimitive},
	}
	for i, c := range cases {
		if got := Classify(c.schema); got != c.want {
			t.Fatalf("case %d: expected %s, got %s", i, c.want, got)
		}
	}
}

func TestTypeName_AcceptsList(t *testing.T) {
	var s Schema
	if err := json.Unmarshal([]byte(`{"type": ["null", "integer"]}`), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if s.Type != "integer" {
		t.Fatalf("expected integer, got %q", s.Type)
	}

	doc, err := Parse([]byte("openapi: 3.1.0\ninfo: {title: t, version: '1'}\ncomponents:\n  schemas:\n    N:\n      type: [string, 'null']\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	n, err := Resolve("#/components/schemas/N", doc)
	if err != nil || n.Type != "string" {
		t.Fatalf("expected string, got %v, %v", n, err)
	}
}

func TestSchema_CloneIsDeep(t *testing.T) {
	doc := loadPetstore(t)
	pet, err := Resolve("#/components/schemas/Pet", doc)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	cp := pet.Clone()
	cp.Properties.Delete("id")
	cp.Required[0] = "changed"

	if pet.Properties.Len() != 3 || pet.Required[0] != "id" {
		t.Fatalf("clone shares state with original")
	}
}

func TestQuery(t *testing.T) {
	doc := loadPetstore(t)

	got, err := doc.Query("$.paths['/pets'].get.operationId")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0] != "listPets" {
		t.Fatalf("expected [listPets], got %v", got)
	}

	codes, err := doc.Query("$.paths.*.*.responses")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(codes) != 4 {
		t.Fatalf("expected 4 response maps, got %d", len(codes))
	}

	if _, err := doc.Query("$[["); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestKinValidator(t *testing.T) {
	data, err := os.ReadFile("testdata/petstore.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	ctx := context.Background()

	doc, err := Load(ctx, data, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Paths.Len() != 2 {
		t.Fatalf("expected 2 paths, got %d", doc.Paths.Len())
	}

	_, err = Load(ctx, []byte("openapi: 3.0.3\npaths: {}\n"), KinValidator{})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Messages) == 0 {
		t.Fatalf("expected ValidationError with messages, got %v", err)
	}

	if _, err := Load(ctx, []byte("openapi: 3.0.3\n"), NopValidator{}); err != nil {
		t.Fatalf("NopValidator should accept, got %v", err)
	}
}
