package sqlinline

const QSelectMonthlyUsage = `--sql 88d4fafa-c490-4f5a-aaf9-665a4538db45
select usage_count
from user_usage
where user_id = $1::uuid
  and month_year = $2::text
limit 1;
`

// QIncrementMonthlyUsage is the read-modify-write primitive for the monthly
// counter. The upsert keeps the (user_id, month_year) row unique and the
// increment atomic under concurrent requests from the same user.
const QIncrementMonthlyUsage = `--sql c5232431-b9ba-4367-9058-1c2bd0ad6b75
insert into user_usage (id, user_id, month_year, usage_count, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::text, 1, now(), now())
on conflict (user_id, month_year) do update set
    usage_count = user_usage.usage_count + 1,
    updated_at = now()
returning usage_count;
`

const QInsertUsageEvent = `--sql 46944ffb-1d74-4a3f-9aac-b3c8e079d0e7
insert into usage_events(id, user_id, event_type, success, latency_ms, created_at, properties)
values (gen_random_uuid(), $1::uuid, $2::text, $3::boolean, $4::int, now(), coalesce($5::jsonb, '{}'::jsonb));
`
