package flashdb

const (
	kib = 1024
	mib = 1024 * kib
)

// Single status register: BP bits only.
func sr1(id uint32, name, manufacturer string, size uint32, mask, protect uint16) Descriptor {
	return Descriptor{
		ID:                 id,
		Name:               name,
		Manufacturer:       manufacturer,
		Size:               size,
		StatusRegisterSize: 1,
		ProtectMask:        mask,
		ProtectBits:        protect,
		ReadSR:             []byte{0x05},
		WriteSR:            []byte{0x01},
	}
}

// Two status register bytes written together with 0x01. CMP (SR2 bit 6)
// must be cleared along with BP0..BP4.
func sr2(id uint32, name, manufacturer string, size uint32) Descriptor {
	return Descriptor{
		ID:                 id,
		Name:               name,
		Manufacturer:       manufacturer,
		Size:               size,
		StatusRegisterSize: 2,
		ProtectMask:        0x407C,
		ProtectBits:        0x001C,
		ReadSR:             []byte{0x05, 0x35},
		WriteSR:            []byte{0x01},
	}
}

// Two status register bytes, SR2 written on its own with 0x31.
func sr2Split(id uint32, name, manufacturer string, size uint32) Descriptor {
	d := sr2(id, name, manufacturer, size)
	d.WriteSR = []byte{0x01, 0x31}
	return d
}

var builtinParts = []Descriptor{
	// GigaDevice
	sr2(0x1340C8, "GD25Q40", "GigaDevice", 512*kib),
	sr2(0x1440C8, "GD25Q80", "GigaDevice", 1*mib),
	sr2(0x1540C8, "GD25Q16", "GigaDevice", 2*mib),
	sr2Split(0x1640C8, "GD25Q32", "GigaDevice", 4*mib),
	sr2Split(0x1740C8, "GD25Q64", "GigaDevice", 8*mib),
	sr2Split(0x1840C8, "GD25Q128", "GigaDevice", 16*mib),
	sr2(0x1464C8, "GD25WD80E", "GigaDevice", 1*mib),
	sr2(0x1565C8, "GD25WQ16E", "GigaDevice", 2*mib),
	sr2(0x1665C8, "GD25WQ32E", "GigaDevice", 4*mib),
	sr2Split(0x1660C8, "GD25LQ32E", "GigaDevice", 4*mib),

	// Winbond
	sr2(0x1440EF, "W25Q80", "Winbond", 1*mib),
	sr2(0x1540EF, "W25Q16", "Winbond", 2*mib),
	sr2Split(0x1640EF, "W25Q32", "Winbond", 4*mib),
	sr2Split(0x1740EF, "W25Q64", "Winbond", 8*mib),
	sr2Split(0x1840EF, "W25Q128", "Winbond", 16*mib),
	sr2Split(0x1940EF, "W25Q256", "Winbond", 32*mib),
	sr2Split(0x2040EF, "W25Q512JV", "Winbond", 64*mib),
	sr2Split(0x2170EF, "W25Q01JV", "Winbond", 128*mib),
	sr2Split(0x2270EF, "W25Q02JV", "Winbond", 256*mib),

	// Macronix
	sr1(0x1423C2, "MX25V8035F", "Macronix", 1*mib, 0x3C, 0x3C),
	sr1(0x1523C2, "MX25V1635F", "Macronix", 2*mib, 0x3C, 0x3C),
	sr1(0x1420C2, "MX25L8006E", "Macronix", 1*mib, 0x1C, 0x1C),
	sr1(0x1520C2, "MX25L1606E", "Macronix", 2*mib, 0x3C, 0x3C),
	sr1(0x1620C2, "MX25L3233F", "Macronix", 4*mib, 0x3C, 0x3C),
	sr1(0x1720C2, "MX25L6433F", "Macronix", 8*mib, 0x3C, 0x3C),
	sr1(0x1820C2, "MX25L12835F", "Macronix", 16*mib, 0x3C, 0x3C),

	// XTX
	sr2(0x14400B, "XT25F08B", "XTX", 1*mib),
	sr2(0x15400B, "XT25F16B", "XTX", 2*mib),
	sr2(0x16400B, "XT25F32B", "XTX", 4*mib),
	sr2Split(0x17400B, "XT25F64B", "XTX", 8*mib),
	sr2Split(0x18400B, "XT25F128B", "XTX", 16*mib),

	// Puya
	sr2(0x146085, "P25Q80H", "Puya", 1*mib),
	sr2(0x156085, "P25Q16H", "Puya", 2*mib),
	sr2(0x166085, "P25Q32H", "Puya", 4*mib),
	sr2Split(0x176085, "P25Q64H", "Puya", 8*mib),
	sr2Split(0x186085, "P25Q128H", "Puya", 16*mib),

	// Zbit
	sr2(0x14405E, "ZB25VQ80", "Zbit", 1*mib),
	sr2(0x15405E, "ZB25VQ16", "Zbit", 2*mib),
	sr2(0x16405E, "ZB25VQ32", "Zbit", 4*mib),
	sr2Split(0x17405E, "ZB25VQ64", "Zbit", 8*mib),

	// Boya
	sr2(0x144068, "BY25Q80", "Boya", 1*mib),
	sr2(0x154068, "BY25Q16", "Boya", 2*mib),
	sr2(0x164068, "BY25Q32", "Boya", 4*mib),
	sr2Split(0x174068, "BY25Q64", "Boya", 8*mib),
	sr2Split(0x184068, "BY25Q128", "Boya", 16*mib),

	// XMC
	sr2(0x164020, "XM25QH32B", "XMC", 4*mib),
	sr2Split(0x174020, "XM25QH64C", "XMC", 8*mib),
	sr2Split(0x184020, "XM25QH128C", "XMC", 16*mib),

	// Micron
	sr1(0x16BA20, "N25Q032", "Micron", 4*mib, 0x5C, 0x5C),
	sr1(0x17BA20, "N25Q064", "Micron", 8*mib, 0x5C, 0x5C),

	// Eon
	sr1(0x14301C, "EN25Q80", "Eon", 1*mib, 0x3C, 0x3C),
	sr1(0x15701C, "EN25QH16", "Eon", 2*mib, 0x3C, 0x3C),
	sr1(0x16701C, "EN25QH32", "Eon", 4*mib, 0x3C, 0x3C),
	sr1(0x17701C, "EN25QH64", "Eon", 8*mib, 0x3C, 0x3C),

	// TH
	sr2(0x1460EB, "TH25Q80HB", "TH", 1*mib),
	sr2(0x1560EB, "TH25Q16HB", "TH", 2*mib),

	// ESMT
	sr1(0x16418C, "F25L32QA", "ESMT", 4*mib, 0x3C, 0x3C),

	// Fudan
	sr2(0x1440A1, "FM25Q08", "Fudan", 1*mib),
	sr2(0x1540A1, "FM25Q16", "Fudan", 2*mib),
	sr2Split(0x1640A1, "FM25Q32", "Fudan", 4*mib),

	// Giantec
	sr2(0x1540C4, "GT25Q16", "Giantec", 2*mib),
}
