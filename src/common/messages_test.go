package common

import (
	"hbs/src/db"
	"hbs/src/types"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"
)

type MessageSuite struct {
	suite.Suite
	Mock sqlmock.Sqlmock
}

func (s *MessageSuite) SetupTest() {
	gormDB, mock := NewMockDB(s.T())
	db.NewDB(gormDB)
	s.Mock = mock
}

func (s *MessageSuite) messageRows(senderID any, receiverID uint, read bool, isSystem bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "sender_id", "receiver_id", "body", "read", "is_system"}).
		AddRow(1, senderID, receiverID, "hello", read, isSystem)
}

func (s *MessageSuite) TestMarkReadFlipsOnce() {
	s.Mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))

	err := MarkMessageRead(nil, 1, 10)
	s.NoError(err)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *MessageSuite) TestMarkReadIdempotent() {
	// Already read: the conditional update misses, the reload shows the
	// receiver owns it, so this is a no-op.
	s.Mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))
	s.Mock.ExpectQuery("SELECT").WillReturnRows(s.messageRows(20, 10, true, false))

	err := MarkMessageRead(nil, 1, 10)
	s.NoError(err)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *MessageSuite) TestMarkReadByNonReceiverIsNoop() {
	// The conditional update misses because actor 99 is not the receiver;
	// the flag stays untouched and the caller sees no error.
	s.Mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))
	s.Mock.ExpectQuery("SELECT").WillReturnRows(s.messageRows(20, 10, false, false))

	err := MarkMessageRead(nil, 1, 99)
	s.NoError(err)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *MessageSuite) TestMarkReadMissingMessage() {
	s.Mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))
	s.Mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := MarkMessageRead(nil, 1, 10)
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *MessageSuite) TestDeleteSystemMessageForbidden() {
	s.Mock.ExpectQuery("SELECT").WillReturnRows(s.messageRows(nil, 10, false, true))

	err := DeleteMessage(1, 10)
	s.ErrorIs(err, types.ErrForbidden)
}

func (s *MessageSuite) TestDeleteForeignMessageForbidden() {
	s.Mock.ExpectQuery("SELECT").WillReturnRows(s.messageRows(20, 10, false, false))

	err := DeleteMessage(1, 10)
	s.ErrorIs(err, types.ErrForbidden)
}

func (s *MessageSuite) TestDeleteOwnMessage() {
	s.Mock.ExpectQuery("SELECT").WillReturnRows(s.messageRows(10, 20, false, false))
	s.Mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))

	err := DeleteMessage(1, 10)
	s.NoError(err)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *MessageSuite) TestSendToSelfForbidden() {
	s.Mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(10, "Me", "me@example.com"))

	_, err := SendMessage(nil, 10, &types.CreateMessageRequestBody{ReceiverID: 10, Body: "hi"})
	s.ErrorIs(err, types.ErrForbidden)
}

func (s *MessageSuite) TestSendToUnknownReceiver() {
	s.Mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := SendMessage(nil, 10, &types.CreateMessageRequestBody{ReceiverID: 99, Body: "hi"})
	s.ErrorIs(err, types.ErrNotFound)
}

func TestMessageSuite(t *testing.T) {
	suite.Run(t, new(MessageSuite))
}
