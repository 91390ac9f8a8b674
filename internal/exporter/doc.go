// Package exporter writes generated tables as CSV, XLSX, JSON or Arrow IPC
// files.
//
// The writers work on any io.Writer:
//
//	err := exporter.Write(w, exporter.FormatCSV, tbl, exporter.Options{Precision: 4, BOM: true})
//
// FileExporter places files under the configured output directory and can
// split a table into one file per label of a feature:
//
//	files := exporter.NewFileExporter(paths, logger)
//	path, err := files.Export(ctx, "retail", exporter.FormatXLSX, tbl, opts)
//	paths, err := files.ExportPartitions(ctx, "retail", "country", exporter.FormatCSV, tbl, opts)
package exporter
