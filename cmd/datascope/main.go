// DataScope is a deterministic, policy-governed analytics engine for
// tabular datasets.
//
// It ingests CSV files into SQLite, selects an analysis policy from the
// dataset's schema, executes the policy's generated queries, evaluates
// declarative threshold rules, and emits evidence-bound findings and
// normalized anomalies together with replayable artifacts.
//
// Usage:
//
//	# Analyze a CSV file end to end
//	datascope run orders.csv
//
//	# Force a specific policy and map a column onto a role
//	datascope run orders.csv --policy orders_v1 --role customer=buyer_id
//
//	# List and inspect the built-in policies
//	datascope policy list
//	datascope policy describe orders_v1
//
//	# Validate a CSV without analyzing it
//	datascope ingest orders.csv
//
//	# Watch a drop directory and analyze every file that lands in it
//	datascope watch --config config.yaml
package main

func main() {
	Execute()
}
