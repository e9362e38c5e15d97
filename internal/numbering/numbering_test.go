package numbering

import (
	"context"
	"sync"
	"testing"
	"time"

	"taller-backend/internal/models"
	"taller-backend/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     int64
	}{
		{"empty", nil, 1},
		{"sequential", []string{"00000001", "00000002"}, 3},
		{"gaps are not filled", []string{"00000001", "00000007"}, 8},
		{"non numeric ignored", []string{"abc", "00000004", "", "12-3"}, 5},
		{"unordered", []string{"00000010", "00000002"}, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.existing))
		})
	}
}

func TestPadAndFormat(t *testing.T) {
	assert.Equal(t, "00000042", Pad(42, SequenceWidth))
	assert.Equal(t, "0003", Pad(3, PointOfSaleWidth))
	assert.Equal(t, "A-0001-00000042", Format("A", "0001", Pad(42, SequenceWidth)))
}

func TestNormalize(t *testing.T) {
	pos, err := NormalizePointOfSale("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPointOfSale, pos)

	pos, err = NormalizePointOfSale("12")
	require.NoError(t, err)
	assert.Equal(t, "0012", pos)

	_, err = NormalizePointOfSale("12345")
	assert.Error(t, err)

	num, err := NormalizeNumber("57")
	require.NoError(t, err)
	assert.Equal(t, "00000057", num)

	_, err = NormalizeNumber("A12")
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestLetters(t *testing.T) {
	assert.Equal(t, "B", NormalizeLetter(models.SaleTypeFactura, "b"))
	assert.Equal(t, "A", NormalizeLetter(models.SaleTypeFactura, "Z"))
	assert.Equal(t, "P", NormalizeLetter(models.SaleTypePresupuesto, "A"))
	assert.Equal(t, "R", NormalizeLetter(models.SaleTypeRemito, ""))
	assert.Equal(t, "R", NormalizeLetter(models.SaleTypeRecibo, ""))
	assert.Equal(t, "X", DefaultLetter(models.SaleType("Otro")))
	assert.Equal(t, "X", PurchaseLetter("q"))
	assert.Equal(t, "C", PurchaseLetter("c"))
}

func TestAllocatorSerializesPerKey(t *testing.T) {
	a := NewAllocator(nil)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := a.Lock(context.Background(), "k")
			require.NoError(t, err)
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestAllocatorWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a := NewAllocator(rdb)
	unlock, err := a.Lock(context.Background(), SaleKey(1, "Factura", "0001"))
	require.NoError(t, err)
	assert.True(t, mr.Exists("numbering:"+SaleKey(1, "Factura", "0001")))
	unlock()
	assert.False(t, mr.Exists("numbering:"+SaleKey(1, "Factura", "0001")))
}

func TestAllocatorRedisTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	key := WorkOrderKey(9)
	// Otra instancia tiene el lock tomado.
	require.NoError(t, mr.Set("numbering:"+key, "other-instance"))

	a := NewAllocator(rdb)
	a.wait = 300 * time.Millisecond
	_, err := a.Lock(context.Background(), key)
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestStoreNextNumbers(t *testing.T) {
	db := testutil.SetupDB(t)
	org := testutil.CreateOrganization(t, db, "Taller Norte")
	other := testutil.CreateOrganization(t, db, "Taller Sur")

	mk := func(orgID uint, typ models.SaleType, pos, number string) {
		s := models.Sale{
			OrganizationID: orgID, CustomerID: 1, Type: typ, Letter: DefaultLetter(typ),
			PointOfSale: pos, Number: number, SaleNumber: Format(DefaultLetter(typ), pos, number),
			SaleDate: time.Now(), PaymentType: models.PaymentAccount, Status: models.StatusPendienteDePago,
			Total: decimal.NewFromInt(1), Balance: decimal.NewFromInt(1),
		}
		require.NoError(t, db.Create(&s).Error)
	}
	mk(org.ID, models.SaleTypeFactura, "0001", "00000001")
	mk(org.ID, models.SaleTypeFactura, "0001", "00000005")
	mk(org.ID, models.SaleTypeFactura, "0002", "00000009")
	mk(org.ID, models.SaleTypePresupuesto, "0001", "00000020")
	mk(other.ID, models.SaleTypeFactura, "0001", "00000099")

	next, err := NextSaleNumber(db, org.ID, models.SaleTypeFactura, "0001")
	require.NoError(t, err)
	assert.Equal(t, "00000006", next)

	next, err = NextSaleNumber(db, org.ID, models.SaleTypeRecibo, "0001")
	require.NoError(t, err)
	assert.Equal(t, "00000001", next)

	wo, err := NextWorkOrderNumber(db, org.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, wo)

	dups, err := FindDuplicates(db)
	require.NoError(t, err)
	assert.Empty(t, dups)
}
