package core

import "github.com/shopspring/decimal"

// SeedUnits returns the business units the enterprise runs.
func SeedUnits() []BusinessUnit {
	return []BusinessUnit{
		{ID: "u1", Name: "Unit Perdagangan (Toko Desa)", Description: "Toko kelontong dan ATK"},
		{ID: "u2", Name: "Unit Pariwisata", Description: "Pengelolaan tiket wisata sungai"},
		{ID: "u3", Name: "Unit Jasa Sewa", Description: "Sewa tenda dan kursi"},
		{ID: "u4", Name: "Unit Simpan Pinjam", Description: "Layanan keuangan mikro"},
	}
}

// SeedTransactions returns the ledger used when no mirrored copy can be loaded.
func SeedTransactions() []Transaction {
	tx := func(id string, day int, desc string, amount int64, typ TransactionType, cat, unit string) Transaction {
		return Transaction{
			ID:          id,
			Date:        NewDate(2023, 10, day),
			Description: desc,
			Amount:      decimal.NewFromInt(amount),
			Type:        typ,
			Category:    cat,
			UnitID:      unit,
		}
	}
	return []Transaction{
		tx("t1", 1, "Penjualan Tiket Wisata", 2500000, Income, "Penjualan", "u2"),
		tx("t2", 2, "Belanja Stok Toko", 1200000, Expense, "Persediaan", "u1"),
		tx("t3", 3, "Sewa Tenda Hajatan", 500000, Income, "Jasa", "u3"),
		tx("t4", 5, "Gaji Penjaga Toko", 800000, Expense, "Gaji", "u1"),
		tx("t5", 10, "Bagi Hasil Simpan Pinjam", 350000, Income, "Bunga", "u4"),
		tx("t6", 12, "Perbaikan Toilet Wisata", 300000, Expense, "Perawatan", "u2"),
		tx("t7", 15, "Penjualan Toko Mingguan", 4500000, Income, "Penjualan", "u1"),
	}
}
