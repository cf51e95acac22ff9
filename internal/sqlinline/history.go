package sqlinline

const QInsertHistoryItem = `--sql 799ba1f7-e38a-491e-ac8d-f2de981b7851
insert into chat_history (id, user_id, original_prompt, enhanced_prompt, improvements, created_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, coalesce($4::jsonb, '[]'::jsonb), now())
returning id, original_prompt, enhanced_prompt, improvements, created_at;
`

const QListHistoryItems = `--sql b2413cb8-debb-485b-9a91-0c717e3d26dc
select id, original_prompt, enhanced_prompt, improvements, created_at
from chat_history
where user_id = $1::uuid
order by created_at desc
limit $2::int;
`

const QDeleteHistoryItem = `--sql 3a58fd12-7f47-4cb4-bc8b-6670a0afc884
delete from chat_history
where id = $1::uuid
  and user_id = $2::uuid;
`

const QClearHistory = `--sql ff941f0f-29b8-4d5d-a553-b03aad29dbf5
delete from chat_history
where user_id = $1::uuid;
`
