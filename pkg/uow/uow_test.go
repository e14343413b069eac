package uow

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type namedRepo interface {
	Name() string
}

type stubRepo struct {
	conn DBTX
}

func (s *stubRepo) Name() string { return "stub" }

type UnitOfWorkTestSuite struct {
	suite.Suite
	unitOfWork *UnitOfWork
}

func TestUnitOfWorkSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkTestSuite))
}

func (s *UnitOfWorkTestSuite) SetupTest() {
	s.unitOfWork = NewUnitOfWork(nil)
	s.Require().NoError(s.unitOfWork.Register("stub", func(conn DBTX) Repository {
		return &stubRepo{conn: conn}
	}))
}

func (s *UnitOfWorkTestSuite) TestRegisterTwice() {
	err := s.unitOfWork.Register("stub", func(DBTX) Repository { return nil })
	s.ErrorIs(err, ErrRepositoryAlreadyRegistered)
}

func (s *UnitOfWorkTestSuite) TestGetRepositoryAs() {
	repo, err := GetRepositoryAs[namedRepo](s.unitOfWork, "stub")
	s.Require().NoError(err)
	s.Equal("stub", repo.Name())

	_, err = GetRepositoryAs[namedRepo](s.unitOfWork, "missing")
	s.ErrorIs(err, ErrRepositoryNotRegistered)

	_, err = GetRepositoryAs[interface{ Missing() }](s.unitOfWork, "stub")
	s.ErrorIs(err, ErrInvalidRepositoryType)
}

func (s *UnitOfWorkTestSuite) TestTransactionGetAs() {
	tx := NewTransaction(nil, s.unitOfWork.repositories)

	repo, err := GetAs[namedRepo](tx, "stub")
	s.Require().NoError(err)
	s.Equal("stub", repo.Name())

	_, err = GetAs[namedRepo](tx, "missing")
	s.ErrorIs(err, ErrRepositoryNotRegistered)
}

func (s *UnitOfWorkTestSuite) TestRegisterNilFactory() {
	err := s.unitOfWork.Register("nil", nil)
	s.ErrorIs(err, ErrNilFactory)
}
