package postgres

import (
	"strings"
	"testing"

	"parish/internal/core/entity"
	"parish/internal/core/id"
)

func TestBuildForeignKeyQuery(t *testing.T) {
	target := id.New()
	sql, args, err := buildForeignKeyQuery(entity.TypeMember, entity.RelationHousehold, target).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}

	want := "SELECT id, entity_type, status, deleted_at, deleted_by, version, protected, church_id, foreign_keys, attributes " +
		"FROM entity_records WHERE entity_type = $1 AND foreign_keys->>$2 = $3"
	if sql != want {
		t.Errorf("sql mismatch:\n got: %s\nwant: %s", sql, want)
	}

	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d: %v", len(args), args)
	}
	if args[0] != "member" {
		t.Errorf("expected entity_type arg %q, got %v", "member", args[0])
	}
	if args[1] != "household" {
		t.Errorf("expected relation arg %q, got %v", "household", args[1])
	}
	if args[2] != target.String() {
		t.Errorf("expected target arg %q, got %v", target.String(), args[2])
	}
}

func TestBuildVersionedUpdate(t *testing.T) {
	recordID := id.New()
	values := map[string]any{
		"id":     recordID,
		"status": "deleted",
	}

	sql, args, err := buildVersionedUpdate(values, recordID, 3).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}

	if strings.Contains(sql, "SET id") || strings.Contains(sql, ", id =") {
		t.Errorf("primary key must never be updated: %s", sql)
	}
	if !strings.Contains(sql, "version = version + 1") {
		t.Errorf("expected version increment, got: %s", sql)
	}
	if !strings.HasSuffix(sql, "WHERE id = $2 AND version = $3") {
		t.Errorf("expected optimistic lock guard, got: %s", sql)
	}

	// status value, id guard, version guard
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d: %v", len(args), args)
	}
	if args[0] != "deleted" {
		t.Errorf("expected status arg %q, got %v", "deleted", args[0])
	}
	if args[2] != 3 {
		t.Errorf("expected version guard 3, got %v", args[2])
	}
}

func TestBuildVersionedUpdate_AllColumns(t *testing.T) {
	rec := entity.New(entity.TypeFund, "church-1")
	rec.SetAttribute("name", "General Fund")
	values, err := rowValues(rec)
	if err != nil {
		t.Fatalf("rowValues: %v", err)
	}

	sql, _, err := buildVersionedUpdate(values, rec.ID, 1).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}

	for _, col := range []string{"entity_type", "status", "deleted_at", "deleted_by", "protected", "church_id", "foreign_keys", "attributes"} {
		if !strings.Contains(sql, col+" = $") {
			t.Errorf("expected %s in SET clause, got: %s", col, sql)
		}
	}
}

func TestRecordRowRoundTrip(t *testing.T) {
	rec := entity.New(entity.TypeContribution, "church-1")
	rec.SetForeignKey(entity.RelationFund, id.New())
	rec.SetAttribute("amount", "25.00")

	values, err := rowValues(rec)
	if err != nil {
		t.Fatalf("rowValues: %v", err)
	}

	row := recordRow{
		ID:          rec.ID,
		EntityType:  values["entity_type"].(string),
		Status:      values["status"].(string),
		Version:     rec.Version,
		ChurchID:    rec.ChurchID,
		ForeignKeys: values["foreign_keys"].([]byte),
		Attributes:  values["attributes"].([]byte),
	}
	got, err := row.toRecord()
	if err != nil {
		t.Fatalf("toRecord: %v", err)
	}

	if got.Type != entity.TypeContribution {
		t.Errorf("expected type %q, got %q", entity.TypeContribution, got.Type)
	}
	if got.ForeignKey(entity.RelationFund) != rec.ForeignKey(entity.RelationFund) {
		t.Errorf("foreign key lost in round trip")
	}
	if got.Attributes["amount"] != "25.00" {
		t.Errorf("attribute lost in round trip: %v", got.Attributes)
	}
}
