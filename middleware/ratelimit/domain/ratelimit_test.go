package domain

import "testing"

func TestClassFor(t *testing.T) {
	cases := []struct {
		roles []string
		want  Class
	}{
		{nil, ClassDefault},
		{[]string{"customer"}, ClassDefault},
		{[]string{"admin"}, ClassAdmin},
		{[]string{"customer", "admin"}, ClassAdmin},
		{[]string{"service"}, ClassService},
	}

	for _, c := range cases {
		if got := ClassFor(c.roles); got != c.want {
			t.Fatalf("ClassFor(%v): expected %s, got %s", c.roles, c.want, got)
		}
	}
}

func TestLimitFor_AppliesMultipliers(t *testing.T) {
	limits := ClassLimits{Base: 100, Multipliers: DefaultMultipliers()}

	cases := []struct {
		class Class
		want  int
	}{
		{ClassDefault, 100},
		{ClassAdmin, 500},
		{ClassService, 1000},
		{ClassAnonymous, 50},
	}

	for _, c := range cases {
		if got := limits.LimitFor(c.class); got != c.want {
			t.Fatalf("LimitFor(%s): expected %d, got %d", c.class, c.want, got)
		}
	}
}

func TestLimitFor_NeverBelowOne(t *testing.T) {
	limits := ClassLimits{Base: 1, Multipliers: DefaultMultipliers()}

	// 1 * 0.5 truncaria para 0; o limite efetivo nunca cai abaixo de 1
	if got := limits.LimitFor(ClassAnonymous); got != 1 {
		t.Fatalf("expected minimum limit 1, got %d", got)
	}
}
