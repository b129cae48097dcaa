// Package flashdb holds the static table of SPI flash parts found on T5/BK modules.
//
// Each Descriptor records the capacity of a part and how its status register
// write protection is cleared. The built-in table is immutable and shared:
//
//	d, err := flashdb.Default().Lookup(0x1640C8)
//	if errors.Is(err, flashdb.ErrNotFound) {
//	    d = flashdb.Fallback(0x1640C8)
//	}
//
// Additional parts can be layered on top without touching the shared table:
//
//	table, err := flashdb.Default().With(myParts...)
package flashdb
