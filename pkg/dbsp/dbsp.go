// Package dbsp implements Database Stream Processing (DBSP) operators for
// incremental computation on Z-sets (multisets with integer multiplicities).
// See the detailed DBSP specification in
// https://mihaibudiu.github.io/work/dbsp-spec.pdf.
//
// Data is represented as Z-sets where each record carries a signed
// multiplicity, enabling efficient incremental processing of insertions,
// updates and deletions: applying a delta batch to an operator produces only
// the delta of its output, never a full recomputation.
//
// Key components:
//   - UnaryOp, BinaryOp: typed DBSP operators (linear, bilinear, nonlinear).
//   - IncrementalJoinOp: bilinear join maintained through per-key indexes.
//   - IncrementalGroupOp: keyed reduction recomputed only for touched keys.
//   - Chain, Executor: linear operator chains with incremental execution.
//
// Operator types:
//   - Linear: map, filter, concat (preserve zero and commute with addition,
//     so the snapshot operator is already its own incremental version).
//   - Bilinear: joins (multiplication-like semantics; the incremental
//     version needs the three-term expansion Δa⋈b + a⋈Δb + Δa⋈Δb).
//   - Nonlinear: group/distinct (the reduction must see the full current
//     value-group, so the incremental version retains per-key state).
package dbsp
