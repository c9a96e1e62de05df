package bigquery

import (
	"strings"
	"testing"
)

func TestSwapStatement(t *testing.T) {
	ds := Dataset{ProjectID: "proj", DatasetID: "finance"}
	staged := map[string]string{
		transactionsTable:     "transactions_staging_abc",
		installmentPlansTable: "installment_plans_staging_abc",
	}

	sql := swapStatement(ds, staged)
	stmts := strings.Split(strings.TrimSpace(sql), "\n")

	if stmts[0] != "BEGIN TRANSACTION;" {
		t.Errorf("first statement = %q, want BEGIN TRANSACTION;", stmts[0])
	}
	if last := stmts[len(stmts)-1]; last != "COMMIT TRANSACTION;" {
		t.Errorf("last statement = %q, want COMMIT TRANSACTION;", last)
	}
	// six deletes, two inserts, begin and commit
	if len(stmts) != len(StateTables)+len(staged)+2 {
		t.Errorf("got %d statements, want %d:\n%s", len(stmts), len(StateTables)+len(staged)+2, sql)
	}

	for _, table := range StateTables {
		del := "DELETE FROM `proj.finance." + table + "` WHERE user_id = @user_id;"
		if !strings.Contains(sql, del) {
			t.Errorf("missing %q", del)
		}
	}

	ins := "INSERT INTO `proj.finance.installment_plans` SELECT * FROM `proj.finance.installment_plans_staging_abc`;"
	if !strings.Contains(sql, ins) {
		t.Errorf("missing %q", ins)
	}
	if strings.Contains(sql, "INSERT INTO `proj.finance.loans`") {
		t.Error("unstaged table must only be cleared")
	}

	// Each insert follows the delete on the same table.
	txDelete := strings.Index(sql, "DELETE FROM `proj.finance.transactions`")
	txInsert := strings.Index(sql, "INSERT INTO `proj.finance.transactions`")
	if txDelete < 0 || txInsert < txDelete {
		t.Errorf("transactions insert at %d precedes delete at %d", txInsert, txDelete)
	}
}
