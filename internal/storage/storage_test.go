package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"revue/internal/alert"
	"revue/internal/credential"
	"revue/internal/slogutil"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	return setupTestDBWithOptions(t, DefaultOptions())
}

func setupTestDBWithOptions(t *testing.T, opts Options) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "revue.db")
	db, err := OpenWithOptions(dbPath, slogutil.NewDiscardLogger(), opts)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seed adds members 1001 (Alice) and 1002 (Bob) and bosses 101 (R1A) and 102 (R1B)
func seed(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	members := NewMemberRepository(db)
	bosses := NewBossRepository(db)

	for _, m := range []Member{
		{MemberID: "1001", Alias: "Alice", Account: "alice@example.com", Password: "pw1"},
		{MemberID: "1002", Alias: "Bob"},
	} {
		if res := members.Add(ctx, m); res.Status != StatusInsertSuccess {
			t.Fatalf("seed member %s: %v", m.MemberID, res.Err())
		}
	}
	for _, b := range []Boss{
		{BossID: 101, Alias: "R1A", Health: 6000000},
		{BossID: 102, Alias: "R1B", Health: 8000000},
	} {
		if res := bosses.Add(ctx, b); res.Status != StatusInsertSuccess {
			t.Fatalf("seed boss %d: %v", b.BossID, res.Err())
		}
	}
}

func addRecord(t *testing.T, db *DB, rec Record) Record {
	t.Helper()
	res := NewRecordRepository(db).Add(context.Background(), rec)
	if res.Status != StatusInsertSuccess {
		t.Fatalf("add record: %v", res.Err())
	}
	return res.Payload
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (n *recordingNotifier) Notify(_ context.Context, a alert.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

func TestOpenCreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "revue.db")
	logger := slogutil.NewDiscardLogger()

	db, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, currentSchemaVersion)
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopening an up-to-date file must not touch its contents.
	db, err = Open(dbPath, logger)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestMigrateFromV1(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "revue.db")

	raw, err := sql.Open("sqlite", "file:"+dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	tx, err := raw.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := createSchemaVersionTable(tx); err != nil {
		t.Fatalf("createSchemaVersionTable: %v", err)
	}
	if err := createEntityTables(tx); err != nil {
		t.Fatalf("createEntityTables: %v", err)
	}
	if err := setSchemaVersion(tx, 1); err != nil {
		t.Fatalf("setSchemaVersion: %v", err)
	}
	stmts := []string{
		`INSERT INTO members (member_id, alias) VALUES ('1001', 'Alice')`,
		`INSERT INTO teams (member_id, team_id, team_list, us_list) VALUES ('1001', 1, 'c1', 'u1')`,
		`INSERT INTO teams (member_id, team_id, team_list, us_list) VALUES ('1001', 1, 'c2', 'u2')`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	_ = raw.Close()

	db, err := Open(dbPath, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open() migration error = %v", err)
	}
	defer db.Close()

	version, _ := db.SchemaVersion()
	if version != 2 {
		t.Fatalf("schema version after migration = %d, want 2", version)
	}

	ctx := context.Background()
	teams := NewTeamRepository(db)
	res := teams.SearchOne(ctx, "1001", 1)
	if res.Status != StatusSearchSuccess {
		t.Fatalf("SearchOne() = %v", res.Err())
	}
	if res.Payload.Cards[0] != "c1" {
		t.Errorf("kept team cards = %v, want the oldest row [c1]", res.Payload.Cards)
	}
	if list := teams.ListAll(ctx); len(list.Payload) != 1 {
		t.Errorf("teams after migration = %d, want 1", len(list.Payload))
	}

	dup := teams.Add(ctx, Team{MemberID: "1001", TeamID: 1, Cards: []string{"c3"}, Modifiers: []string{"u3"}})
	if dup.Status != StatusAlreadyExists {
		t.Errorf("duplicate team after migration = %v, want RECORD_ALREADY_EXIST", dup.Status)
	}
}

func TestNewerSchemaRejected(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "revue.db")
	db, err := Open(dbPath, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := db.ExecContext(context.Background(), "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := Open(dbPath, slogutil.NewDiscardLogger()); err == nil {
		t.Fatal("Open() of a newer schema succeeded, want error")
	}
}

func TestMemberRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewMemberRepository(db)

	alice := Member{MemberID: "1001", Alias: "Alice", Account: "a", Password: "p"}
	if res := repo.Add(ctx, alice); res.Status != StatusInsertSuccess {
		t.Fatalf("first Add() = %v", res.Status)
	}

	tests := []struct {
		name   string
		member Member
		want   Status
	}{
		{"same id", Member{MemberID: "1001", Alias: "Other"}, StatusAlreadyExists},
		{"same alias", Member{MemberID: "1003", Alias: "Alice"}, StatusAlreadyExists},
		{"empty id", Member{MemberID: "  ", Alias: "X"}, StatusMalformedInput},
		{"empty alias", Member{MemberID: "1004"}, StatusMalformedInput},
		{"new member", Member{MemberID: "1002", Alias: "Bob"}, StatusInsertSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repo.Add(ctx, tt.member).Status; got != tt.want {
				t.Errorf("Add() = %v, want %v", got, tt.want)
			}
		})
	}

	list := repo.ListAll(ctx)
	if list.Status != StatusSearchSuccess || len(list.Payload) != 2 {
		t.Fatalf("ListAll() = %v with %d members, want 2", list.Status, len(list.Payload))
	}
	if list.Payload[0].MemberID != "1001" || list.Payload[1].MemberID != "1002" {
		t.Errorf("ListAll() order = %s, %s", list.Payload[0].MemberID, list.Payload[1].MemberID)
	}

	searches := []struct {
		ident  string
		want   Status
		wantID string
	}{
		{"1001", StatusSearchSuccess, "1001"},
		{"Bob", StatusSearchSuccess, "1002"},
		{" Alice ", StatusSearchSuccess, "1001"},
		{"nobody", StatusNotExist, ""},
		{"", StatusNotExist, ""},
		{"   ", StatusNotExist, ""},
	}
	for _, s := range searches {
		res := repo.SearchOne(ctx, s.ident)
		if res.Status != s.want || res.Payload.MemberID != s.wantID {
			t.Errorf("SearchOne(%q) = %v %q, want %v %q", s.ident, res.Status, res.Payload.MemberID, s.want, s.wantID)
		}
	}

	updated := repo.Update(ctx, Member{MemberID: "1002", Alias: "Bobby", Account: "b"})
	if updated.Status != StatusUpdateSuccess {
		t.Fatalf("Update() = %v", updated.Status)
	}
	if got := repo.SearchOne(ctx, "Bobby"); got.Payload.Account != "b" {
		t.Errorf("updated account = %q, want b", got.Payload.Account)
	}
	if got := repo.Update(ctx, Member{MemberID: "9999", Alias: "Z"}).Status; got != StatusNotExist {
		t.Errorf("Update() of missing member = %v, want RECORD_NOT_EXIST", got)
	}

	if got := repo.Delete(ctx, "9999").Status; got != StatusNotExist {
		t.Errorf("Delete() of missing member = %v, want RECORD_NOT_EXIST", got)
	}
	if got := repo.Delete(ctx, "1002").Status; got != StatusDeleteSuccess {
		t.Errorf("Delete() = %v, want DELETE_SUCCESS", got)
	}
	if got := repo.SearchOne(ctx, "1002").Status; got != StatusNotExist {
		t.Errorf("SearchOne() after delete = %v", got)
	}
}

func TestMemberExactIDBeatsAlias(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewMemberRepository(db)

	repo.Add(ctx, Member{MemberID: "2000", Alias: "3000"})
	repo.Add(ctx, Member{MemberID: "3000", Alias: "Carol"})

	if got := repo.SearchOne(ctx, "3000").Payload.MemberID; got != "3000" {
		t.Errorf("SearchOne(3000) = %s, want the exact id match", got)
	}
	if got := repo.Resolve(ctx, "Carol").Payload; got != "3000" {
		t.Errorf("Resolve(Carol) = %s, want 3000", got)
	}
	if got := repo.Resolve(ctx, "Dave").Status; got != StatusNotExist {
		t.Errorf("Resolve(Dave) = %v, want RECORD_NOT_EXIST", got)
	}
}

func TestMemberDeleteBlockedByReferences(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	ctx := context.Background()
	members := NewMemberRepository(db)

	addRecord(t, db, Record{MemberID: "1001", BossID: 101, Damage: 500, Sequence: 1, Turn: 3, Team: 1})
	if got := members.Delete(ctx, "1001").Status; got != StatusConstraintViolation {
		t.Errorf("Delete() with a record = %v, want CONSTRAINT_VIOLATION", got)
	}
	if got := members.SearchOne(ctx, "1001").Status; got != StatusSearchSuccess {
		t.Errorf("member gone after rejected delete: %v", got)
	}

	NewTeamRepository(db).Add(ctx, Team{MemberID: "1002", TeamID: 1, Cards: []string{"c"}, Modifiers: []string{"m"}})
	if got := members.Delete(ctx, "1002").Status; got != StatusConstraintViolation {
		t.Errorf("Delete() with a team = %v, want CONSTRAINT_VIOLATION", got)
	}
}

func TestMemberSealedPasswords(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewMemberRepository(db).WithSealer(credential.NewSecretBox("hunter2"))

	if res := repo.Add(ctx, Member{MemberID: "1001", Alias: "Alice", Password: "s3cret"}); !res.OK() {
		t.Fatalf("Add() = %v", res.Err())
	}

	var stored string
	if err := db.QueryRowContext(ctx, "SELECT password FROM members WHERE member_id = '1001'").Scan(&stored); err != nil {
		t.Fatalf("read stored password: %v", err)
	}
	if !credential.IsSealed(stored) || strings.Contains(stored, "s3cret") {
		t.Errorf("stored password %q is not sealed", stored)
	}

	if got := repo.SearchOne(ctx, "Alice").Payload.Password; got != "s3cret" {
		t.Errorf("SearchOne() password = %q, want s3cret", got)
	}
	if got := repo.ListAll(ctx).Payload[0].Password; got != "s3cret" {
		t.Errorf("ListAll() password = %q, want s3cret", got)
	}

	// A repository with the wrong key cannot read it.
	wrong := NewMemberRepository(db).WithSealer(credential.NewSecretBox("other"))
	if got := wrong.SearchOne(ctx, "Alice").Status; got.OK() {
		t.Error("SearchOne() with the wrong key succeeded")
	}
}

func TestBossRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewBossRepository(db)

	tests := []struct {
		name string
		boss Boss
		want Status
	}{
		{"first", Boss{BossID: 5, Alias: "A", Health: 100}, StatusInsertSuccess},
		{"numeric alias", Boss{BossID: 7, Alias: "5", Health: 100}, StatusInsertSuccess},
		{"same id", Boss{BossID: 5, Alias: "Z", Health: 1}, StatusAlreadyExists},
		{"same alias", Boss{BossID: 9, Alias: "A", Health: 1}, StatusAlreadyExists},
		{"negative health", Boss{BossID: 10, Alias: "N", Health: -1}, StatusMalformedInput},
		{"empty alias", Boss{BossID: 11, Alias: " ", Health: 1}, StatusMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repo.Add(ctx, tt.boss).Status; got != tt.want {
				t.Errorf("Add() = %v, want %v", got, tt.want)
			}
		})
	}

	// "5" is both boss 5 and the alias of boss 7; the integer id wins.
	if got := repo.SearchOne(ctx, "5").Payload.BossID; got != 5 {
		t.Errorf("SearchOne(5) = %d, want 5", got)
	}
	if got := repo.SearchOne(ctx, "A").Payload.BossID; got != 5 {
		t.Errorf("SearchOne(A) = %d, want 5", got)
	}
	if got := repo.SearchOne(ctx, "").Status; got != StatusNotExist {
		t.Errorf("SearchOne(\"\") = %v, want RECORD_NOT_EXIST", got)
	}
	if got := repo.Resolve(ctx, "7").Payload; got != 7 {
		t.Errorf("Resolve(7) = %d", got)
	}

	if got := repo.Update(ctx, Boss{BossID: 7, Alias: "Seven", Health: 70}).Status; got != StatusUpdateSuccess {
		t.Errorf("Update() = %v", got)
	}
	if got := repo.SearchOne(ctx, "Seven").Payload.Health; got != 70 {
		t.Errorf("updated health = %d, want 70", got)
	}
	if got := repo.Update(ctx, Boss{BossID: 8, Alias: "X", Health: 1}).Status; got != StatusNotExist {
		t.Errorf("Update() of missing boss = %v", got)
	}

	if got := repo.Delete(ctx, 7).Status; got != StatusDeleteSuccess {
		t.Errorf("Delete() = %v", got)
	}
	if got := repo.Delete(ctx, 7).Status; got != StatusNotExist {
		t.Errorf("second Delete() = %v, want RECORD_NOT_EXIST", got)
	}

	list := repo.ListAll(ctx)
	if len(list.Payload) != 1 || list.Payload[0].BossID != 5 {
		t.Errorf("ListAll() = %+v", list.Payload)
	}
}

func TestBossDeleteBlockedByRecords(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	addRecord(t, db, Record{MemberID: "1001", BossID: 101, Damage: 1, Sequence: 1, Turn: 1})

	if got := NewBossRepository(db).Delete(context.Background(), 101).Status; got != StatusConstraintViolation {
		t.Errorf("Delete() of a referenced boss = %v, want CONSTRAINT_VIOLATION", got)
	}
}

func TestBossAddRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewBossRepository(db)

	rng := BossRange{
		Names:   []string{"A", "B", "C", "D"},
		Healths: []int64{6000000, 8000000, 10000000, 12000000},
		Start:   1,
		End:     3,
	}

	res := repo.AddRange(ctx, rng)
	if res.Status != StatusInsertSuccess {
		t.Fatalf("AddRange() = %v", res.Err())
	}
	if len(res.Payload) != 8 {
		t.Fatalf("AddRange() outcomes = %d, want 8", len(res.Payload))
	}

	list := repo.ListAll(ctx).Payload
	wantIDs := []int64{101, 102, 103, 104, 201, 202, 203, 204}
	if len(list) != len(wantIDs) {
		t.Fatalf("ListAll() = %d bosses, want %d", len(list), len(wantIDs))
	}
	for i, id := range wantIDs {
		if list[i].BossID != id {
			t.Errorf("boss %d id = %d, want %d", i, list[i].BossID, id)
		}
	}
	if list[5].Alias != "R2B" || list[5].Health != 8000000 {
		t.Errorf("boss 202 = %+v, want alias R2B health 8000000", list[5])
	}

	again := repo.AddRange(ctx, rng)
	if again.Status != StatusAlreadyExists {
		t.Errorf("repeated AddRange() = %v, want RECORD_ALREADY_EXIST", again.Status)
	}
	for _, o := range again.Payload {
		if o.Status != StatusAlreadyExists {
			t.Errorf("boss %d outcome = %v", o.Boss.BossID, o.Status)
		}
	}

	// Partial overlap inserts only the new level.
	wider := rng
	wider.End = 4
	partial := repo.AddRange(ctx, wider)
	if partial.Status != StatusInsertSuccess {
		t.Fatalf("overlapping AddRange() = %v", partial.Status)
	}
	inserted := 0
	for _, o := range partial.Payload {
		if o.Status == StatusInsertSuccess {
			inserted++
		}
	}
	if inserted != 4 {
		t.Errorf("overlapping AddRange() inserted %d, want 4", inserted)
	}

	malformed := []BossRange{
		{Names: []string{"A", "B", "C"}, Healths: []int64{1, 2, 3}, Start: 1, End: 2},
		{Names: []string{"A", "B", "C", "D"}, Healths: []int64{1, 2, 3, -4}, Start: 1, End: 2},
		{Names: []string{"A", "B", "C", "D"}, Healths: []int64{1, 2, 3, 4}, Start: 2, End: 2},
		{Names: []string{"A", "", "C", "D"}, Healths: []int64{1, 2, 3, 4}, Start: 1, End: 2},
	}
	for i, m := range malformed {
		if got := repo.AddRange(ctx, m).Status; got != StatusMalformedInput {
			t.Errorf("malformed range %d = %v, want MALFORMED_INPUT", i, got)
		}
	}
}

func TestRecordRepository(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	ctx := context.Background()
	repo := NewRecordRepository(db)

	first := addRecord(t, db, Record{MemberID: "1001", BossID: 101, Damage: 500, Sequence: 1, Turn: 6, Team: 1, DateTime: 1000})
	second := addRecord(t, db, Record{MemberID: "1001", BossID: 101, Damage: 500, Sequence: 2, Turn: 6, Team: 2, DateTime: 1001})
	third := addRecord(t, db, Record{MemberID: "1002", BossID: 102, Damage: 700, Sequence: 1, Turn: 2, Team: 1})
	if first.RecordID == 0 || second.RecordID <= first.RecordID {
		t.Errorf("record ids not increasing: %d, %d", first.RecordID, second.RecordID)
	}
	if third.DateTime == 0 {
		t.Error("zero DateTime was not stamped")
	}

	rejects := []struct {
		name string
		rec  Record
		want Status
	}{
		{"turn above cap", Record{MemberID: "1001", BossID: 101, Damage: 1, Sequence: 1, Turn: 7}, StatusMalformedInput},
		{"turn zero", Record{MemberID: "1001", BossID: 101, Damage: 1, Sequence: 1, Turn: 0}, StatusMalformedInput},
		{"negative damage", Record{MemberID: "1001", BossID: 101, Damage: -1, Sequence: 1, Turn: 1}, StatusMalformedInput},
		{"sequence zero", Record{MemberID: "1001", BossID: 101, Damage: 1, Sequence: 0, Turn: 1}, StatusMalformedInput},
		{"unknown member", Record{MemberID: "9999", BossID: 101, Damage: 1, Sequence: 1, Turn: 1}, StatusConstraintViolation},
		{"unknown boss", Record{MemberID: "1001", BossID: 999, Damage: 1, Sequence: 1, Turn: 1}, StatusConstraintViolation},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			if got := repo.Add(ctx, tt.rec).Status; got != tt.want {
				t.Errorf("Add() = %v, want %v", got, tt.want)
			}
		})
	}

	got := repo.SearchOne(ctx, second.RecordID)
	if got.Status != StatusSearchSuccess || got.Payload.Sequence != 2 {
		t.Errorf("SearchOne() = %v %+v", got.Status, got.Payload)
	}

	second.Damage = 900
	if res := repo.Update(ctx, second); res.Status != StatusUpdateSuccess {
		t.Errorf("Update() = %v", res.Status)
	}
	if got := repo.SearchOne(ctx, second.RecordID).Payload.Damage; got != 900 {
		t.Errorf("updated damage = %d, want 900", got)
	}
	if res := repo.Update(ctx, Record{RecordID: 9999, MemberID: "1001", BossID: 101, Sequence: 1, Turn: 1}); res.Status != StatusNotExist {
		t.Errorf("Update() of missing record = %v", res.Status)
	}

	if got := repo.DeleteByID(ctx, third.RecordID).Status; got != StatusDeleteSuccess {
		t.Errorf("DeleteByID() = %v", got)
	}
	if got := repo.DeleteByID(ctx, third.RecordID).Status; got != StatusNotExist {
		t.Errorf("second DeleteByID() = %v", got)
	}
	if n := len(repo.ListAll(ctx).Payload); n != 2 {
		t.Errorf("ListAll() = %d records, want 2", n)
	}
}

func TestRecordDeleteMatching(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	ctx := context.Background()
	repo := NewRecordRepository(db)

	for i := 1; i <= 2; i++ {
		addRecord(t, db, Record{MemberID: "1001", BossID: 101, Damage: 500, Sequence: i, Turn: 1})
	}
	addRecord(t, db, Record{MemberID: "1001", BossID: 101, Damage: 600, Sequence: 3, Turn: 1})

	tests := []struct {
		member, boss string
		damage       int64
		want         Status
		count        int64
	}{
		{"Nobody", "R1A", 500, StatusNotExist, 0},
		{"Alice", "R9Z", 500, StatusNotExist, 0},
		{"Alice", "R1A", 1, StatusNotExist, 0},
		{"Alice", "R1A", 500, StatusDeleteSuccess, 2},
		{"1001", "101", 600, StatusDeleteSuccess, 1},
		{"1001", "101", 600, StatusNotExist, 0},
	}
	for _, tt := range tests {
		res := repo.DeleteMatching(ctx, tt.member, tt.boss, tt.damage)
		if res.Status != tt.want || res.Payload != tt.count {
			t.Errorf("DeleteMatching(%s, %s, %d) = %v %d, want %v %d",
				tt.member, tt.boss, tt.damage, res.Status, res.Payload, tt.want, tt.count)
		}
	}
}

func TestRecordDeleteIDs(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	ctx := context.Background()
	repo := NewRecordRepository(db)

	first := addRecord(t, db, Record{MemberID: "1001", BossID: 101, Damage: 500, Sequence: 1, Turn: 6, Team: 1})
	second := addRecord(t, db, Record{MemberID: "1001", BossID: 101, Damage: 500, Sequence: 2, Turn: 6, Team: 1})
	keep := addRecord(t, db, Record{MemberID: "1001", BossID: 101, Damage: 500, Sequence: 3, Turn: 6, Team: 1})

	res := repo.DeleteIDs(ctx, []int64{first.RecordID, second.RecordID, 9999})
	if res.Status != StatusDeleteSuccess || res.Payload != 2 {
		t.Fatalf("DeleteIDs() = %v %d, want DELETE_SUCCESS 2", res.Status, res.Payload)
	}
	if got := repo.SearchOne(ctx, keep.RecordID); !got.OK() {
		t.Errorf("unlisted record %d was deleted", keep.RecordID)
	}
	if res := repo.DeleteIDs(ctx, []int64{first.RecordID}); res.Status != StatusNotExist {
		t.Errorf("DeleteIDs(already gone) = %v, want %v", res.Status, StatusNotExist)
	}
	if res := repo.DeleteIDs(ctx, nil); res.Status != StatusNotExist {
		t.Errorf("DeleteIDs(nil) = %v, want %v", res.Status, StatusNotExist)
	}
}

func TestTeamRepository(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	ctx := context.Background()
	repo := NewTeamRepository(db)

	team := Team{MemberID: "1001", TeamID: 1, Cards: []string{"c1", "c2"}, Modifiers: []string{"u1", "u2"}}
	res := repo.Add(ctx, team)
	if res.Status != StatusInsertSuccess || res.Payload.RecordID == 0 {
		t.Fatalf("Add() = %v %+v", res.Status, res.Payload)
	}

	rejects := []struct {
		name string
		team Team
		want Status
	}{
		{"duplicate", Team{MemberID: "1001", TeamID: 1, Cards: []string{"x"}, Modifiers: []string{"y"}}, StatusAlreadyExists},
		{"length mismatch", Team{MemberID: "1001", TeamID: 2, Cards: []string{"a", "b"}, Modifiers: []string{"y"}}, StatusMalformedInput},
		{"no cards", Team{MemberID: "1001", TeamID: 3}, StatusMalformedInput},
		{"separator in card", Team{MemberID: "1001", TeamID: 4, Cards: []string{"a,b"}, Modifiers: []string{"y"}}, StatusMalformedInput},
		{"empty modifier", Team{MemberID: "1001", TeamID: 5, Cards: []string{"a"}, Modifiers: []string{""}}, StatusMalformedInput},
		{"unknown member", Team{MemberID: "9999", TeamID: 1, Cards: []string{"a"}, Modifiers: []string{"b"}}, StatusConstraintViolation},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			if got := repo.Add(ctx, tt.team).Status; got != tt.want {
				t.Errorf("Add() = %v, want %v", got, tt.want)
			}
		})
	}
	if n := len(repo.ListAll(ctx).Payload); n != 1 {
		t.Errorf("rejected teams were persisted: %d rows", n)
	}

	found := repo.SearchOne(ctx, "Alice", 1)
	if found.Status != StatusSearchSuccess {
		t.Fatalf("SearchOne() = %v", found.Status)
	}
	if strings.Join(found.Payload.Cards, "|") != "c1|c2" || strings.Join(found.Payload.Modifiers, "|") != "u1|u2" {
		t.Errorf("SearchOne() = %+v", found.Payload)
	}
	if got := repo.SearchOne(ctx, "Alice", 9).Status; got != StatusNotExist {
		t.Errorf("SearchOne() of missing team = %v", got)
	}
	if got := repo.SearchOne(ctx, "Nobody", 1).Status; got != StatusNotExist {
		t.Errorf("SearchOne() of unknown member = %v", got)
	}

	if got := repo.Update(ctx, Team{MemberID: "1001", TeamID: 1, Cards: []string{"c9"}, Modifiers: []string{"u9"}}).Status; got != StatusUpdateSuccess {
		t.Errorf("Update() = %v", got)
	}
	if got := repo.Update(ctx, Team{MemberID: "1001", TeamID: 1, Cards: []string{"c9"}}).Status; got != StatusMalformedInput {
		t.Errorf("Update() with mismatch = %v", got)
	}
	if got := repo.Update(ctx, Team{MemberID: "1002", TeamID: 1, Cards: []string{"c"}, Modifiers: []string{"u"}}).Status; got != StatusNotExist {
		t.Errorf("Update() of missing team = %v", got)
	}

	del := repo.Delete(ctx, "Alice", 1)
	if del.Status != StatusDeleteSuccess || del.Payload.Cards[0] != "c9" {
		t.Errorf("Delete() = %v %+v", del.Status, del.Payload)
	}
	if got := repo.Delete(ctx, "Alice", 1).Status; got != StatusNotExist {
		t.Errorf("second Delete() = %v", got)
	}
}

func TestConcurrentAddsInsertOnce(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewMemberRepository(db)

	const workers = 16
	statuses := make(chan Status, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses <- repo.Add(ctx, Member{MemberID: "1001", Alias: "Alice"}).Status
		}()
	}
	wg.Wait()
	close(statuses)

	inserted, duplicate := 0, 0
	for s := range statuses {
		switch s {
		case StatusInsertSuccess:
			inserted++
		case StatusAlreadyExists:
			duplicate++
		default:
			t.Errorf("unexpected status %v", s)
		}
	}
	if inserted != 1 || duplicate != workers-1 {
		t.Errorf("inserted=%d duplicate=%d, want 1 and %d", inserted, duplicate, workers-1)
	}
}

func TestReset(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	ctx := context.Background()
	addRecord(t, db, Record{MemberID: "1001", BossID: 101, Damage: 1, Sequence: 1, Turn: 1})
	NewTeamRepository(db).Add(ctx, Team{MemberID: "1001", TeamID: 1, Cards: []string{"c"}, Modifiers: []string{"m"}})

	res := db.Reset(ctx)
	if res.Status != StatusDeleteSuccess || res.Payload != 6 {
		t.Errorf("Reset() = %v %d, want DELETE_SUCCESS 6", res.Status, res.Payload)
	}
	if n := len(NewMemberRepository(db).ListAll(ctx).Payload); n != 0 {
		t.Errorf("members after reset = %d", n)
	}
	if n := len(NewBossRepository(db).ListAll(ctx).Payload); n != 0 {
		t.Errorf("bosses after reset = %d", n)
	}
}

func TestStorageFailuresAlert(t *testing.T) {
	notifier := &recordingNotifier{}
	opts := DefaultOptions()
	opts.Notifier = notifier
	db := setupTestDBWithOptions(t, opts)
	ctx := context.Background()
	members := NewMemberRepository(db)

	// Business outcomes never alert.
	members.Add(ctx, Member{MemberID: "1001", Alias: "Alice"})
	members.Add(ctx, Member{MemberID: "1001", Alias: "Alice"})
	members.SearchOne(ctx, "nobody")
	members.Add(ctx, Member{MemberID: "", Alias: ""})
	if n := notifier.count(); n != 0 {
		t.Fatalf("business failures raised %d alerts", n)
	}

	_ = db.Close()
	res := members.ListAll(ctx)
	if res.OK() {
		t.Fatal("ListAll() on a closed database succeeded")
	}
	if res.Status == StatusNotExist {
		t.Error("storage failure reported as RECORD_NOT_EXIST")
	}
	if n := notifier.count(); n != 1 {
		t.Fatalf("alerts = %d, want 1", n)
	}
	if notifier.alerts[0].Op != "member.list" {
		t.Errorf("alert op = %q, want member.list", notifier.alerts[0].Op)
	}
}

func TestCanceledOperationDoesNotAlert(t *testing.T) {
	notifier := &recordingNotifier{}
	opts := DefaultOptions()
	opts.Notifier = notifier
	db := setupTestDBWithOptions(t, opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewMemberRepository(db).ListAll(ctx)
	if res.OK() {
		t.Fatal("ListAll() with a canceled context succeeded")
	}
	if res.Status != StatusStorageUnavailable {
		t.Errorf("status = %v, want %v", res.Status, StatusStorageUnavailable)
	}
	if n := notifier.count(); n != 0 {
		t.Errorf("canceled operation raised %d alerts", n)
	}
}
