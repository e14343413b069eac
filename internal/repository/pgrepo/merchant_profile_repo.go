package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
)

const merchantProfileColumns = `id, created_at, updated_at, user_id, shop_name, status,
	contact_name, province, city, district, address_line,
	license_file_key, idcard_front_key, idcard_back_key,
	bank_name, bank_branch, bank_account_name, bank_account_ciphertext, bank_account_blind_index,
	submitted_at, approved_at, approved_by_ref, rejected_at, rejected_by_ref, reject_reason`

type MerchantProfileRepository struct {
	conn uow.DBTX
}

func NewMerchantProfileRepository(conn uow.DBTX) *MerchantProfileRepository {
	return &MerchantProfileRepository{conn: conn}
}

func (m *MerchantProfileRepository) Create(
	ctx context.Context,
	args repoargs.CreateMerchantProfile,
) (*domain.MerchantProfile, error) {
	row := m.conn.QueryRow(ctx, `
		INSERT INTO merchant_profiles (user_id, shop_name, status, contact_name, province, city, district,
			address_line, license_file_key, idcard_front_key, idcard_back_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''))
		RETURNING `+merchantProfileColumns,
		args.UserID, args.ShopName, domain.MerchantStatusPending, args.ContactName, args.Province, args.City,
		args.District, args.AddressLine, args.LicenseFileKey, args.IDCardFrontKey, args.IDCardBackKey,
	)
	profile, err := scanMerchantProfile(row)
	if err != nil {
		return nil, convertErr(err, "creating merchant profile for user %d", args.UserID)
	}
	return profile, nil
}

func (m *MerchantProfileRepository) FindByID(ctx context.Context, id int64) (*domain.MerchantProfile, error) {
	row := m.conn.QueryRow(ctx, `SELECT `+merchantProfileColumns+` FROM merchant_profiles WHERE id = $1`, id)
	profile, err := scanMerchantProfile(row)
	if err != nil {
		return nil, convertErr(err, "finding merchant profile by id %d", id)
	}
	return profile, nil
}

func (m *MerchantProfileRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.MerchantProfile, error) {
	row := m.conn.QueryRow(ctx,
		`SELECT `+merchantProfileColumns+` FROM merchant_profiles WHERE id = $1 FOR UPDATE`, id)
	profile, err := scanMerchantProfile(row)
	if err != nil {
		return nil, convertErr(err, "locking merchant profile with id %d", id)
	}
	return profile, nil
}

func (m *MerchantProfileRepository) FindByUserID(ctx context.Context, userID int64) (*domain.MerchantProfile, error) {
	row := m.conn.QueryRow(ctx, `SELECT `+merchantProfileColumns+` FROM merchant_profiles WHERE user_id = $1`, userID)
	profile, err := scanMerchantProfile(row)
	if err != nil {
		return nil, convertErr(err, "finding merchant profile by user id %d", userID)
	}
	return profile, nil
}

// Submit сохраняет банковские реквизиты и переводит профиль в args.To.
func (m *MerchantProfileRepository) Submit(
	ctx context.Context,
	args repoargs.SubmitMerchantProfile,
) (*domain.MerchantProfile, error) {
	row := m.conn.QueryRow(ctx, `
		UPDATE merchant_profiles
		SET status = $2, bank_name = $3, bank_branch = $4, bank_account_name = $5,
			bank_account_ciphertext = $6, bank_account_blind_index = $7, submitted_at = $8, updated_at = now()
		WHERE id = $1 AND status = $9
		RETURNING `+merchantProfileColumns,
		args.ID, args.To, args.BankName, args.BankBranch, args.BankAccountName,
		args.BankAccountCiphertext, args.BankAccountBlindIndex, args.SubmittedAt, args.From,
	)
	profile, err := scanMerchantProfile(row)
	if err != nil {
		return nil, convertErr(err, "submitting merchant profile %d", args.ID)
	}
	return profile, nil
}

// UpdateReview сохраняет статус и поля решения. Отметки времени и ссылки на оператора пишутся парами.
func (m *MerchantProfileRepository) UpdateReview(
	ctx context.Context,
	args repoargs.UpdateMerchantReview,
) (*domain.MerchantProfile, error) {
	p := args.Profile
	row := m.conn.QueryRow(ctx, `
		UPDATE merchant_profiles
		SET status = $2,
			approved_at = $3, approved_by_ref = NULLIF($4, ''),
			rejected_at = $5, rejected_by_ref = NULLIF($6, ''), reject_reason = NULLIF($7, ''),
			updated_at = now()
		WHERE id = $1 AND status = $8
		RETURNING `+merchantProfileColumns,
		p.ID, p.Status, p.ApprovedAt, p.ApprovedByRef, p.RejectedAt, p.RejectedByRef, p.RejectReason, args.From,
	)
	profile, err := scanMerchantProfile(row)
	if err != nil {
		return nil, convertErr(err, "updating review of merchant profile %d from `%s` to `%s`",
			p.ID, args.From, p.Status)
	}
	return profile, nil
}

func scanMerchantProfile(row rowScanner) (*domain.MerchantProfile, error) {
	var p domain.MerchantProfile
	var licenseKey, frontKey, backKey, bankName, bankBranch, bankAccountName, blindIndex *string
	var approvedBy, rejectedBy, rejectReason *string
	if err := row.Scan(
		&p.ID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.UserID,
		&p.ShopName,
		&p.Status,
		&p.ContactName,
		&p.Province,
		&p.City,
		&p.District,
		&p.AddressLine,
		&licenseKey,
		&frontKey,
		&backKey,
		&bankName,
		&bankBranch,
		&bankAccountName,
		&p.BankAccountCiphertext,
		&blindIndex,
		&p.SubmittedAt,
		&p.ApprovedAt,
		&approvedBy,
		&p.RejectedAt,
		&rejectedBy,
		&rejectReason,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	p.LicenseFileKey = deref(licenseKey)
	p.IDCardFrontKey = deref(frontKey)
	p.IDCardBackKey = deref(backKey)
	p.BankName = deref(bankName)
	p.BankBranch = deref(bankBranch)
	p.BankAccountName = deref(bankAccountName)
	p.BankAccountBlindIndex = deref(blindIndex)
	p.ApprovedByRef = deref(approvedBy)
	p.RejectedByRef = deref(rejectedBy)
	p.RejectReason = deref(rejectReason)
	return &p, nil
}
