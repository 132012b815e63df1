package lifecycle

import (
	"testing"

	"urdf/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeStatus(t *testing.T) {
	tests := []struct {
		status types.ApplicationStatus
		label  string
		icon   string
		color  string
	}{
		{types.ApplicationStatusPending, "Pending Review", "clock", "yellow"},
		{types.ApplicationStatusAllocated, "Funds Allocated", "check-circle", "blue"},
		{types.ApplicationStatusDisbursed, "Disbursed to Payout", "banknote", "green"},
		{types.ApplicationStatusIssue, "Issue - Action Required", "alert-circle", "red"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			desc, err := DescribeStatus(tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.status, desc.Status)
			assert.Equal(t, tt.label, desc.Label)
			assert.Equal(t, tt.icon, desc.Icon)
			assert.Equal(t, tt.color, desc.Color)
			assert.NotEmpty(t, desc.Message)
		})
	}
}

func TestDescribeStatus_CoversEveryStatus(t *testing.T) {
	descs := StatusDescriptions()
	require.Len(t, descs, len(types.ApplicationStatuses))

	for i, s := range types.ApplicationStatuses {
		assert.Equal(t, s, descs[i].Status)
	}
}

func TestDescribeStatus_UnknownIsIntegrityError(t *testing.T) {
	for _, s := range []types.ApplicationStatus{"", "approved", "PENDING"} {
		_, err := DescribeStatus(s)
		assert.ErrorIs(t, err, ErrIntegrity)
		assert.ErrorIs(t, err, types.ErrInvalidStatus)
	}
}
