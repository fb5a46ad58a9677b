package layout

// Table is the decoded hash table header embedded in the singleton.
type Table struct {
	End     uint64
	Buckets uint64
	Mask    uint64
	MaskL   uint64
}

// Ready reports whether the target finished initializing the table.
// The target populates the header lazily, so a resolved singleton does not
// imply a usable table.
func (t Table) Ready() bool {
	return t.Mask != 0 && t.Buckets != 0
}

// BucketAddress returns the address of the bucket selected by hash.
func (t Table) BucketAddress(hash uint64) uint64 {
	return t.Buckets + (hash&t.Mask)*BucketSize
}

// DecodeTable decodes a table header.
func DecodeTable(b []byte) (Table, error) {
	if err := need(b, TableHeaderSize, "table"); err != nil {
		return Table{}, err
	}
	return Table{
		End:     ReadU64(b, TableEndOffset),
		Buckets: ReadU64(b, TableBucketsOffset),
		Mask:    ReadU64(b, TableMaskOffset),
		MaskL:   ReadU64(b, TableMaskLOffset),
	}, nil
}

// Bucket holds the two node pointers of one bucket.
type Bucket struct {
	First uint64
	Last  uint64
}

// DecodeBucket decodes a bucket.
func DecodeBucket(b []byte) (Bucket, error) {
	if err := need(b, BucketSize, "bucket"); err != nil {
		return Bucket{}, err
	}
	return Bucket{
		First: ReadU64(b, BucketFirstOffset),
		Last:  ReadU64(b, BucketLastOffset),
	}, nil
}
