package identity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Space string

const (
	SpaceBusiness Space = "business"
	SpaceAdmin    Space = "admin"
	SpaceSystem   Space = "system"
)

type EntityType string

const (
	TypeUser            EntityType = "User"
	TypeAdminUser       EntityType = "AdminUser"
	TypeSystem          EntityType = "System"
	TypeMerchantProfile EntityType = "MerchantProfile"
	TypeOrder           EntityType = "Order"
	TypePayment         EntityType = "Payment"
	TypeRefund          EntityType = "Refund"
)

// spaces единственный источник знания о том, к какому пространству относится ссылка.
// Форма строки для этого не используется.
var spaces = map[EntityType]Space{
	TypeUser:            SpaceBusiness,
	TypeAdminUser:       SpaceAdmin,
	TypeSystem:          SpaceSystem,
	TypeMerchantProfile: SpaceAdmin,
	TypeOrder:           SpaceAdmin,
	TypePayment:         SpaceAdmin,
	TypeRefund:          SpaceAdmin,
}

var (
	ErrUnknownType   = errors.New("[identity] unknown entity type")
	ErrSpaceMismatch = errors.New("[identity] reference belongs to another identity space")
)

// Reference ссылка на актора или цель действия. Type однозначно определяет пространство идентификаторов.
type Reference struct {
	Type EntityType
	Raw  string
}

func SystemRef() Reference {
	return Reference{Type: TypeSystem, Raw: SystemRaw}
}

func BusinessRef(id uuid.UUID) Reference {
	return Reference{Type: TypeUser, Raw: id.String()}
}

func AdminRef(id int64) (Reference, error) {
	return RecordRef(TypeAdminUser, id)
}

// RecordRef ссылка на запись с целочисленным ключом (админ, заказ, профиль мерчанта и т.п.).
func RecordRef(t EntityType, id int64) (Reference, error) {
	if spaces[t] != SpaceAdmin {
		return Reference{}, fmt.Errorf("%w: %s", ErrSpaceMismatch, t)
	}
	raw, err := ToExternalRef(id)
	if err != nil {
		return Reference{}, err
	}
	return Reference{Type: t, Raw: raw}, nil
}

// Parse восстанавливает ссылку из пары колонок (type, ref) и проверяет, что ref соответствует пространству типа.
func Parse(t string, raw string) (Reference, error) {
	ref := Reference{Type: EntityType(t), Raw: raw}
	switch ref.Space() {
	case SpaceBusiness:
		if _, err := uuid.Parse(raw); err != nil {
			return Reference{}, fmt.Errorf("parse %s reference: %w", t, err)
		}
	case SpaceAdmin:
		if _, err := ToInternalID(raw); err != nil {
			return Reference{}, fmt.Errorf("parse %s reference: %w", t, err)
		}
	case SpaceSystem:
		if raw != SystemRaw {
			return Reference{}, fmt.Errorf("parse system reference `%s`: %w", raw, ErrSpaceMismatch)
		}
	default:
		return Reference{}, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return ref, nil
}

func (r Reference) Space() Space {
	return spaces[r.Type]
}

func (r Reference) IsZero() bool {
	return r.Type == "" && r.Raw == ""
}

func (r Reference) IsSystem() bool {
	return r.Type == TypeSystem
}

// InternalID возвращает целочисленный ключ для ссылок административного пространства.
func (r Reference) InternalID() (int64, error) {
	if r.Space() != SpaceAdmin {
		return 0, fmt.Errorf("%w: %s is not an internal reference", ErrSpaceMismatch, r.Type)
	}
	return ToInternalID(r.Raw)
}

// UUID возвращает идентификатор бизнес-сущности.
func (r Reference) UUID() (uuid.UUID, error) {
	if r.Space() != SpaceBusiness {
		return uuid.Nil, fmt.Errorf("%w: %s is not a business reference", ErrSpaceMismatch, r.Type)
	}
	id, err := uuid.Parse(r.Raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse business reference: %w", err)
	}
	return id, nil
}

func (r Reference) String() string {
	return string(r.Type) + ":" + r.Raw
}
