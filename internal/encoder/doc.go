// Package encoder provides employee encoding to the file formats that the
// object store can query in place.
//
// # Supported Formats
//
//   - JSON: a single indented document, {"employees": [...]}
//   - CSV: one headerless row per employee, columns id, name, age
//   - Parquet: columnar file with columns id, name, age
//
// # Encoder Factory
//
//	factory := encoder.NewFactory("snappy")
//	enc, err := factory.CreateEncoder(employee.FormatParquet)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stats, err := enc.Encode(file, employees)
//
// Compression applies to Parquet only. JSON and CSV are written uncompressed
// so that the query input serialization can declare CompressionType NONE.
//
// # Column Order
//
// Every format keeps the order id, name, age. CSV queries address columns
// positionally (_1, _2, _3) so this order is part of the query contract.
package encoder
