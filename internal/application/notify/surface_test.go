package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurface_ShowYAutoOcultar(t *testing.T) {
	s := NewSurface(30 * time.Millisecond)
	defer s.Close()

	s.Show("Movimiento registrado con éxito.", SeveritySuccess)
	st := s.State()
	assert.True(t, st.Visible)
	assert.Equal(t, SeveritySuccess, st.Severity)
	assert.Equal(t, "Movimiento registrado con éxito.", st.Message)

	require.Eventually(t, func() bool { return !s.State().Visible }, time.Second, 5*time.Millisecond)
	assert.Empty(t, s.State().Message)
}

func TestSurface_ShowReemplazaYReiniciaTemporizador(t *testing.T) {
	s := NewSurface(80 * time.Millisecond)
	defer s.Close()

	s.Show("primero", SeverityInfo)
	time.Sleep(50 * time.Millisecond)
	s.Show("segundo", SeverityError)

	// El temporizador del primero vencería aquí; el segundo debe seguir visible.
	time.Sleep(45 * time.Millisecond)
	st := s.State()
	assert.True(t, st.Visible, "el temporizador anterior no debe ocultar la notificación nueva")
	assert.Equal(t, "segundo", st.Message)
	assert.Equal(t, SeverityError, st.Severity)

	require.Eventually(t, func() bool { return !s.State().Visible }, time.Second, 5*time.Millisecond)
}

func TestSurface_CloseDetieneNotificaciones(t *testing.T) {
	s := NewSurface(time.Hour)
	s.Show("pendiente", SeverityInfo)
	s.Close()
	s.Show("ignorado", SeverityError)
	assert.Equal(t, "pendiente", s.State().Message)
}

func TestNewSurface_DuracionPorDefecto(t *testing.T) {
	s := NewSurface(0)
	assert.Equal(t, DefaultDuration, s.duration)
}
