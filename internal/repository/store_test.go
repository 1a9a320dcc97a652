package repository

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestClassifyLockErr(t *testing.T) {
	timeout := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded; try restarting transaction"}
	err := classifyLockErr(timeout)
	assert.ErrorIs(t, err, ErrLockWaitTimeout)
	// the driver error stays reachable for logging
	var me *mysql.MySQLError
	assert.ErrorAs(t, err, &me)

	duplicate := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	assert.Same(t, error(duplicate), classifyLockErr(duplicate))

	plain := errors.New("connection reset")
	assert.Same(t, plain, classifyLockErr(plain))
	assert.NotErrorIs(t, classifyLockErr(plain), ErrLockWaitTimeout)
}
